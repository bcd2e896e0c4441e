package lang

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

const patternCacheSize = 512

// patterns memoizes compiled expressions by source text.
var patterns *lru.Cache[string, *regexp.Regexp]

func init() {
	c, err := lru.New[string, *regexp.Regexp](patternCacheSize)
	if err != nil {
		panic(err)
	}
	patterns = c
}

// Compile compiles pattern in multiline mode, so ^ and $ anchor at line
// boundaries when the expression runs over a whole file.
func Compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile("(?m)" + pattern)
	if err != nil {
		return nil, err
	}
	patterns.Add(pattern, re)
	return re, nil
}
