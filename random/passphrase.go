package random

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// passphraseWords is a small fixed wordlist; entropy comes from the word count.
var passphraseWords = []string{
	"amber", "anchor", "aspen", "autumn", "basil", "birch", "breeze", "brook",
	"candle", "canyon", "cedar", "cliff", "clover", "coral", "crane", "dawn",
	"delta", "drift", "ember", "fable", "fern", "flint", "gale", "garnet",
	"glade", "grove", "harbor", "hazel", "heron", "ivory", "jasper", "juniper",
	"kestrel", "lagoon", "lantern", "larch", "linden", "lotus", "maple", "meadow",
	"mist", "moss", "north", "oasis", "ochre", "opal", "orchid", "otter",
	"pebble", "pine", "plume", "quartz", "quill", "raven", "reed", "ridge",
	"river", "rowan", "sage", "shale", "sorrel", "sparrow", "spruce", "stone",
	"summit", "thistle", "tide", "timber", "topaz", "tundra", "vale", "violet",
	"wander", "willow", "winter", "wren", "yarrow", "zephyr",
}

// Passphrase generates a passphrase of n words joined by dashes.
func Passphrase(n int) string {
	words := make([]string, n)

	for i := range words {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(passphraseWords))))
		if err != nil {
			panic(err)
		}

		words[i] = passphraseWords[idx.Int64()]
	}

	return strings.Join(words, "-")
}
