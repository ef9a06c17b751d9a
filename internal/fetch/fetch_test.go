// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	testCases := []struct {
		name    string
		url     string
		wantErr error
		want    string
	}{
		{
			name:    "empty url",
			url:     "",
			wantErr: ErrFetch,
		},
		{
			name:    "missing local file",
			url:     "./testdata/missing.tasksh",
			wantErr: ErrFetch,
		},
		{
			name:    "remote url without file",
			url:     "git::https://example.com/repo.git",
			wantErr: ErrInvalidURL,
		},
		{
			name: "local file",
			url:  "./testdata/script.tasksh",
			want: "run /bin/echo hello\nsleep 10\nout 0\nquit\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Get(context.Background(), tc.url)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, data)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, string(data))
		})
	}
}

func TestSplitFileName(t *testing.T) {
	testCases := []struct {
		url      string
		wantSrc  string
		wantFile string
	}{
		{
			url:      "git::https://github.com/org/repo.git//scripts/smoke.tasksh",
			wantSrc:  "git::https://github.com/org/repo.git//scripts",
			wantFile: "smoke.tasksh",
		},
		{
			url:      "git::https://github.com/org/repo.git//smoke.tasksh?ref=v1.2.0",
			wantSrc:  "git::https://github.com/org/repo.git?ref=v1.2.0",
			wantFile: "smoke.tasksh",
		},
		{
			url:      "git::https://github.com/org/repo.git//a/b/c.tasksh?ref=main",
			wantSrc:  "git::https://github.com/org/repo.git//a/b?ref=main",
			wantFile: "c.tasksh",
		},
		{
			url: "git::https://github.com/org/repo.git",
		},
		{
			url: "git::https://github.com/org/repo.git///",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			src, file := splitFileName(tc.url)
			assert.Equal(t, tc.wantSrc, src)
			assert.Equal(t, tc.wantFile, file)
		})
	}
}
