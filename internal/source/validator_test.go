// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorDefault(t *testing.T) {
	v, err := NewValidator(nil, nil)
	require.NoError(t, err)

	assert.NoError(t, v.Validate("https://www.youtube.com/watch?v=abc"))
	assert.NoError(t, v.Validate("dQw4w9WgXcQ"))
	assert.NoError(t, v.Validate("not a url"))
	assert.ErrorIs(t, v.Validate(" "), ErrInvalidURL)
}

func TestValidatorAllowBlock(t *testing.T) {
	v, err := NewValidator(
		[]string{`^https://(www\.)?youtube\.com/`, " ", `^https://youtu\.be/`},
		[]string{`list=`},
	)
	require.NoError(t, err)

	assert.NoError(t, v.Validate("https://youtu.be/abc"))
	assert.NoError(t, v.Validate("https://youtube.com/watch?v=abc"))
	assert.Error(t, v.Validate("https://vimeo.com/123"))
	assert.Error(t, v.Validate("https://youtube.com/watch?v=abc&list=xyz"))
}

func TestValidatorInvalidExpression(t *testing.T) {
	_, err := NewValidator([]string{"("}, nil)
	assert.Error(t, err)

	_, err = NewValidator(nil, []string{"["})
	assert.Error(t, err)
}
