package site

import (
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/object"
	jsoniter "github.com/json-iterator/go"
	"github.com/thiagokokada/gitstatic/internal/config"
	"github.com/thiagokokada/gitstatic/internal/git"
	"github.com/thiagokokada/gitstatic/internal/tree"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var readmeFiles = []string{"README", "README.md"}

var licenseFiles = []string{"LICENSE", "LICENSE.md", "COPYING"}

// Meta is the repository display metadata shown in every page header.
// Configuration values win over the repository's own metadata files.
type Meta struct {
	Name        string
	Description string
	Owner       string
	CloneURL    string

	// Readme and License hold root-tree paths discovered in the head tree,
	// empty when absent.
	Readme  string
	License string
}

func LoadMeta(svc *git.Service, cfg config.Config, headEntries []tree.Entry) Meta {
	meta := Meta{
		Name:        cfg.Name,
		Description: cfg.Description,
		Owner:       cfg.Owner,
		CloneURL:    cfg.CloneURL,
	}
	if meta.Name == "" {
		meta.Name = svc.Name()
	}
	if meta.Description == "" {
		meta.Description = svc.MetaFile("description")
	}
	if meta.Owner == "" {
		meta.Owner = svc.MetaFile("owner")
	}
	if meta.CloneURL == "" {
		meta.CloneURL = svc.MetaFile("url")
	}
	for _, entry := range headEntries {
		if !entry.IsBlob() || entry.Dir() != "" {
			continue
		}
		if meta.Readme == "" && containsName(readmeFiles, entry.Name) {
			meta.Readme = entry.Path
		}
		if meta.License == "" && containsName(licenseFiles, entry.Name) {
			meta.License = entry.Path
		}
	}
	return meta
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Record is the aggregator input contract, written next to the rendered pages
// so a landing-page builder can merge repositories without re-reading git data.
type Record struct {
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Owner        string     `json:"owner,omitempty"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// RecordFile is the fixed, discoverable location of the metadata record
// relative to a repository's output root.
const RecordFile = "repo.json"

func writeRecord(outFS billy.Filesystem, meta Meta, newest *object.Commit) error {
	record := Record{
		Name:        meta.Name,
		Description: meta.Description,
		Owner:       meta.Owner,
	}
	if newest != nil {
		when := newest.Committer.When.UTC()
		record.LastActivity = &when
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", RecordFile, err)
	}
	data = append(data, '\n')
	if err := util.WriteFile(outFS, RecordFile, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", RecordFile, err)
	}
	return nil
}
