package credentials

import (
	"crypto/rand"
	"math/big"
)

// Word lists for generating default profile names
var adjectives = []string{
	"curious", "fluent", "patient", "eager", "bold", "quiet", "witty", "steady",
	"bright", "careful", "cheerful", "daring", "gentle", "keen", "lively", "nimble",
	"plucky", "quick", "restless", "sunny", "swift", "tireless", "wandering", "zesty",
}

var nouns = []string{
	"owl", "parrot", "polyglot", "traveler", "scribe", "reader", "linguist", "fox",
	"heron", "otter", "nomad", "pilgrim", "sparrow", "scholar", "voyager", "wren",
	"dolphin", "magpie", "pelican", "raven", "tortoise", "whale", "finch", "lynx",
}

// GenerateProfileName generates a random profile name in the format "adjective-noun"
func GenerateProfileName() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}

	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}

	return adjective + "-" + noun, nil
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
