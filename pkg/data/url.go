package data

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mchmarny/molweight/pkg/net"
	"github.com/pkg/errors"
)

// IsURL reports whether input names an http(s) resource rather than a file.
func IsURL(input string) bool {
	u, err := url.Parse(input)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// LoadURL reads a population over HTTP. JSON (and extension-less) resources
// are decoded directly, CSV and YAML ones are downloaded and parsed as files.
func LoadURL(ctx context.Context, rawURL string) (*Population, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid population URL: %s", rawURL)
	}

	ext := strings.ToLower(path.Ext(u.Path))
	name := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))

	if ext == "" || ext == "."+FormatJSON {
		p := &Population{}
		if err := net.GetJSON(ctx, rawURL, p); err != nil {
			return nil, errors.Wrapf(err, "error fetching population: %s", rawURL)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if p.Name == "" {
			p.Name = name
		}
		return p, nil
	}

	if _, err := FormatFromPath(u.Path); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "molweight-")
	if err != nil {
		return nil, errors.Wrap(err, "error creating download dir")
	}
	defer os.RemoveAll(dir)

	local := filepath.Join(dir, path.Base(u.Path))
	if err := net.Download(ctx, rawURL, local); err != nil {
		return nil, errors.Wrapf(err, "error downloading population: %s", rawURL)
	}
	return LoadFile(local)
}
