// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package source

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator decides whether a URL may be submitted
type Validator interface {
	Validate(rawURL string) error
}

type validator struct {
	allow []*regexp.Regexp
	block []*regexp.Regexp
}

// NewValidator creates a Validator from allow and block expressions. Block
// wins over allow, an empty allow list admits everything not blocked. Empty
// expressions are ignored. Without any expression every non-empty URL passes
// and the provider decides.
func NewValidator(allow, block []string) (Validator, error) {
	v := &validator{}

	var err error
	if v.allow, err = compile("allow", allow); err != nil {
		return nil, err
	}
	if v.block, err = compile("block", block); err != nil {
		return nil, err
	}

	return v, nil
}

func compile(kind string, exps []string) ([]*regexp.Regexp, error) {
	var list []*regexp.Regexp
	for _, exp := range exps {
		exp = strings.TrimSpace(exp)
		if exp == "" {
			continue
		}
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("invalid %s expression '%s': %w", kind, exp, err)
		}
		list = append(list, re)
	}
	return list, nil
}

func (v *validator) Validate(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	for _, e := range v.block {
		if e.MatchString(rawURL) {
			return fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
		}
	}
	if len(v.allow) == 0 {
		return nil
	}
	for _, e := range v.allow {
		if e.MatchString(rawURL) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
}
