// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package fetch retrieves control scripts using go-getter URL syntax.
//
// Local paths, http(s), git, s3 and the other go-getter sources are supported.
// See https://github.com/hashicorp/go-getter.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/tasksh/internal/ctxlog"
)

var (
	// ErrFetch is returned when a script cannot be retrieved.
	ErrFetch = errors.New("failed to fetch control script")
	// ErrInvalidURL is returned when a remote URL does not name a file.
	ErrInvalidURL = errors.New("invalid URL format")
)

const (
	getterPathSeparator = "//"
	getterRefSeparator  = "?"
	minGetterURLParts   = 3 // scheme, host and path
)

// Get downloads the file named by url into a temporary directory and returns its content.
// The temporary directory is removed before Get returns.
func Get(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrFetch)
	}

	tmpDir, err := os.MkdirTemp("", "tasksh-getter-*")
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	fileName, err := directoryRequest(req, url)
	if err != nil {
		return nil, err
	}

	ctxlog.Debug(ctx, "fetching control script", "src", req.Src, "file", fileName)

	client := getter.Client{
		DisableSymlinks: true,
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	data, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	return data, nil
}

// directoryRequest points req at the directory containing the requested file
// and returns the file's name. go-getter fetches directories more reliably than
// single files (https://github.com/hashicorp/go-getter/issues/98).
func directoryRequest(req *getter.Request, url string) (string, error) {
	local, err := getter.Detect(req, &getter.FileGetter{})
	if err != nil {
		return "", errors.Join(ErrFetch, err)
	}

	if local {
		req.Src = filepath.Dir(url)
		return filepath.Base(url), nil
	}

	src, fileName := splitFileName(url)
	if src == "" || fileName == "" {
		return "", fmt.Errorf("%w: %w: %s", ErrFetch, ErrInvalidURL, url)
	}

	req.Src = src

	return fileName, nil
}

// splitFileName splits a go-getter URL with a "//" subdirectory into the
// directory URL and the file name. A trailing ?ref=... query is kept on the
// directory URL.
func splitFileName(url string) (string, string) {
	parts := strings.Split(url, getterPathSeparator)
	if len(parts) < minGetterURLParts {
		return "", ""
	}

	last := parts[len(parts)-1]

	var query string
	if path, q, ok := strings.Cut(last, getterRefSeparator); ok {
		last, query = path, q
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)

	if dir := filepath.Dir(last); dir == "." {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = dir
	}

	src := strings.Join(parts, getterPathSeparator)
	if query != "" {
		src += getterRefSeparator + query
	}

	return src, fileName
}
