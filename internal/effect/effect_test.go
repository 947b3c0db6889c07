package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Descriptor
	}{
		{"empty", "", Descriptor{Kind: KindCustom, Args: []string{}, Raw: ""}},
		{"whitespace only", "   \t", Descriptor{Kind: KindCustom, Args: []string{}, Raw: ""}},
		{"unlock no args", "unlock_exit", Descriptor{Kind: KindUnlockExit, Args: []string{}, Raw: "unlock_exit"}},
		{"add points", "add_points:50", Descriptor{Kind: KindAddPoints, Args: []string{"50"}, Raw: "add_points:50"}},
		{"give item keeps order", "give_item:foo:bar:1", Descriptor{Kind: KindGiveItem, Args: []string{"foo", "bar", "1"}, Raw: "give_item:foo:bar:1"}},
		{"case insensitive keyword", "  ADD_Currency : 1000 ", Descriptor{Kind: KindAddCurrency, Args: []string{"1000"}, Raw: "ADD_Currency : 1000"}},
		{"empty args preserved", "give_effect::120:", Descriptor{Kind: KindGiveEffect, Args: []string{"", "120", ""}, Raw: "give_effect::120:"}},
		{"unknown keyword", "summon:dragon", Descriptor{Kind: KindCustom, Args: []string{"dragon"}, Raw: "summon:dragon"}},
		{"explicit custom", "custom", Descriptor{Kind: KindCustom, Args: []string{}, Raw: "custom"}},
		{"message with colons", "message:hi: there", Descriptor{Kind: KindMessage, Args: []string{"hi", "there"}, Raw: "message:hi: there"}},
		{"leading colon", ":x", Descriptor{Kind: KindCustom, Args: []string{"x"}, Raw: ":x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestKindDeferred(t *testing.T) {
	assert.True(t, KindAddCurrency.Deferred())
	assert.True(t, KindGiveItem.Deferred())
	assert.True(t, KindGiveEffect.Deferred())
	assert.True(t, KindCustom.Deferred())
	assert.False(t, KindUnlockExit.Deferred())
	assert.False(t, KindAddPoints.Deferred())
	assert.False(t, KindMessage.Deferred())
}

func TestParseAllSkipsBlank(t *testing.T) {
	got := ParseAll([]string{"unlock_exit", " ", "", "message:hi"})
	if assert.Len(t, got, 2) {
		assert.Equal(t, KindUnlockExit, got[0].Kind)
		assert.Equal(t, KindMessage, got[1].Kind)
	}
}

func TestDescriptorArg(t *testing.T) {
	d := Parse("give_item:diamond:3")
	assert.Equal(t, "diamond", d.Arg(0))
	assert.Equal(t, "3", d.Arg(1))
	assert.Equal(t, "", d.Arg(2))
	assert.Equal(t, "", d.Arg(-1))
}
