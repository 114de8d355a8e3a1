package site

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/gorilla/feeds"
	"github.com/thiagokokada/gitstatic/internal/page"
)

// buildFeed renders the Atom document for the newest window of the combined
// log. Timestamps come from the commits themselves so reruns on an unchanged
// repository stay byte-identical.
func (r *Renderer) buildFeed() ([]byte, error) {
	window := r.merged
	if len(window) > r.cfg.FeedSize {
		window = window[:r.cfg.FeedSize]
	}
	feed := &feeds.Feed{
		Title:       r.meta.Name,
		Description: r.meta.Description,
		Link:        &feeds.Link{Href: r.meta.CloneURL},
		Author:      &feeds.Author{Name: r.meta.Owner},
	}
	if len(window) > 0 {
		feed.Updated = window[0].Committer.When
	}
	for _, commit := range window {
		feed.Items = append(feed.Items, feedItem(r, commit))
	}
	atom, err := feed.ToAtom()
	if err != nil {
		return nil, fmt.Errorf("render feed: %w", err)
	}
	return []byte(atom), nil
}

func feedItem(r *Renderer, commit *object.Commit) *feeds.Item {
	href, _ := r.asm.Path(page.CommitID(commit.Hash.String()))
	return &feeds.Item{
		Id:      commit.Hash.String(),
		Title:   subject(commit),
		Link:    &feeds.Link{Href: href},
		Author:  &feeds.Author{Name: commit.Author.Name, Email: commit.Author.Email},
		Created: commit.Author.When,
		Updated: commit.Committer.When,
		Content: commit.Message,
	}
}
