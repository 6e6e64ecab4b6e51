package vocab

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"fewshot/internal/corpus"
)

func rawCorpus(pairs ...string) *corpus.Raw {
	var authors []string
	texts := make(map[string]string)
	for i := 0; i+1 < len(pairs); i += 2 {
		authors = append(authors, pairs[i])
		texts[pairs[i]] = pairs[i+1]
	}
	return corpus.NewRaw("test", authors, texts)
}

func TestBuildAssignsIdsInFirstEncounterOrder(t *testing.T) {
	c := rawCorpus("a", "the cat sat", "b", "the cat ran")

	v := Build(c, 2)

	if v.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", v.Len())
	}
	if got, want := v.Words(), []string{UnknownToken, "the", "cat"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Words() = %v, want %v", got, want)
	}
	if v.Ignored() != 2 {
		t.Fatalf("Ignored() = %d, want 2", v.Ignored())
	}

	enc := v.EncodeCorpus(c)
	if got, want := enc.Sequence("a"), []int{1, 2, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("a = %v, want %v", got, want)
	}
	if got, want := enc.Sequence("b"), []int{1, 2, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("b = %v, want %v", got, want)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	c := rawCorpus(
		"x", strings.Repeat("alpha beta gamma delta ", 5),
		"y", strings.Repeat("delta gamma epsilon ", 5),
	)
	first := Build(c, 3)
	for i := 0; i < 5; i++ {
		again := Build(c, 3)
		if !reflect.DeepEqual(first.Words(), again.Words()) {
			t.Fatalf("build %d differs: %v vs %v", i, again.Words(), first.Words())
		}
	}
}

func TestUnknownIdIsReservedForRareWords(t *testing.T) {
	c := rawCorpus("a", "common common rare common", "b", "common once")
	v := Build(c, 2)

	for id, word := range v.Words() {
		if id == UnknownID {
			continue
		}
		got, ok := v.ID(word)
		if !ok || got != id {
			t.Fatalf("ID(%q) = %d, %v; want %d", word, got, ok, id)
		}
		if got == UnknownID {
			t.Fatalf("word %q mapped to the unknown id", word)
		}
	}
	if _, ok := v.ID("rare"); ok {
		t.Fatal("rare word should not be in the vocabulary")
	}
	if got := v.Encode("rare unseen common"); !reflect.DeepEqual(got, []int{0, 0, 1}) {
		t.Fatalf("Encode() = %v", got)
	}
}

func TestRoundTripThroughWords(t *testing.T) {
	c := rawCorpus("a", "one two three two one three", "b", "three two one")
	v := Build(c, 2)
	for _, author := range c.Authors() {
		text, _ := c.Text(author)
		ids := v.Encode(text)
		words := strings.Fields(text)
		for i, id := range ids {
			word, ok := v.Word(id)
			if !ok {
				t.Fatalf("Word(%d) missing", id)
			}
			if id != UnknownID && word != words[i] {
				t.Fatalf("token %d: decoded %q, want %q", i, word, words[i])
			}
		}
	}
}

func TestThresholdOfOneKeepsEverything(t *testing.T) {
	v := Build(rawCorpus("a", "x y z"), 1)
	if v.Len() != 4 || v.Ignored() != 0 {
		t.Fatalf("Len() = %d Ignored() = %d", v.Len(), v.Ignored())
	}
}

func TestWordOutOfRange(t *testing.T) {
	v := Build(rawCorpus("a", "x"), 1)
	for _, id := range []int{-1, 2} {
		if _, ok := v.Word(id); ok {
			t.Fatalf("Word(%d) should be absent", id)
		}
	}
}

func TestWriteAndReadText(t *testing.T) {
	v := Build(rawCorpus("a", "the cat the cat sat"), 2)

	var buf bytes.Buffer
	if err := v.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if buf.String() != "unknown_token\nthe\ncat\n" {
		t.Fatalf("unexpected text form %q", buf.String())
	}
	loaded, err := ReadText(&buf)
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if !reflect.DeepEqual(loaded.Words(), v.Words()) {
		t.Fatalf("loaded words %v, want %v", loaded.Words(), v.Words())
	}
}

func TestReadTextRejectsMalformedInput(t *testing.T) {
	tests := map[string]string{
		"empty":           "",
		"missing unknown": "the\ncat\n",
		"duplicate":       "unknown_token\nthe\nthe\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadText(strings.NewReader(input)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRepeatedPhraseScenario(t *testing.T) {
	c := rawCorpus(
		"A", strings.Repeat("the cat sat ", 12)+"zebra",
		"B", strings.Repeat("dogs run fast ", 10)+"zebra yak",
	)
	v := Build(c, DefaultMinOccurrences)

	for _, word := range []string{"the", "cat", "sat", "dogs", "run", "fast"} {
		id, ok := v.ID(word)
		if !ok || id == UnknownID {
			t.Fatalf("%q should have a nonzero id, got %d (%v)", word, id, ok)
		}
	}
	enc := v.EncodeCorpus(c)
	a := enc.Sequence("A")
	if a[len(a)-1] != UnknownID {
		t.Fatalf("rare word zebra encoded as %d", a[len(a)-1])
	}
	b := enc.Sequence("B")
	if b[len(b)-1] != UnknownID || b[len(b)-2] != UnknownID {
		t.Fatalf("rare words in B encoded as %v", b[len(b)-2:])
	}
	if a[0] != 1 || a[1] != 2 || a[2] != 3 {
		t.Fatalf("ids not assigned in encounter order: %v", a[:3])
	}
}
