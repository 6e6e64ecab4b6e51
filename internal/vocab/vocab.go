// Package vocab builds the frequency-truncated word vocabulary shared by
// every author and encodes normalized text into token ids.
//
// Id 0 is reserved for UnknownToken. Words seen fewer than the minimum
// number of times across the whole corpus encode to 0; every other word gets
// the next free id the first time it is met while scanning authors in corpus
// order and tokens in text order, so two builds over the same corpus always
// agree.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"fewshot/internal/corpus"
	"fewshot/internal/textnorm"
)

// UnknownToken is the word stored at UnknownID.
const UnknownToken = "unknown_token"

// UnknownID is the id of every rare or unseen word.
const UnknownID = 0

// DefaultMinOccurrences is the frequency threshold used when none is given.
const DefaultMinOccurrences = 10

// Vocabulary is an immutable bidirectional word/id mapping.
type Vocabulary struct {
	wordToID map[string]int
	idToWord []string
	ignored  int
}

// Build scans c twice: once to count words and once to assign ids.
func Build(c *corpus.Raw, minOccurrences int) *Vocabulary {
	counts := make(map[string]int)
	authors := c.Authors()
	for _, author := range authors {
		text, _ := c.Text(author)
		for _, word := range textnorm.Tokens(text) {
			counts[word]++
		}
	}

	v := &Vocabulary{
		wordToID: map[string]int{UnknownToken: UnknownID},
		idToWord: []string{UnknownToken},
	}
	for _, n := range counts {
		if n < minOccurrences {
			v.ignored++
		}
	}
	for _, author := range authors {
		text, _ := c.Text(author)
		for _, word := range textnorm.Tokens(text) {
			if counts[word] < minOccurrences {
				continue
			}
			if _, ok := v.wordToID[word]; ok {
				continue
			}
			v.wordToID[word] = len(v.idToWord)
			v.idToWord = append(v.idToWord, word)
		}
	}
	return v
}

// Len returns the number of ids, including UnknownID.
func (v *Vocabulary) Len() int { return len(v.idToWord) }

// Ignored returns how many distinct words fell below the threshold.
func (v *Vocabulary) Ignored() int { return v.ignored }

// ID returns the id of word and whether the word is in the vocabulary.
func (v *Vocabulary) ID(word string) (int, bool) {
	id, ok := v.wordToID[word]
	return id, ok
}

// Word returns the word stored at id.
func (v *Vocabulary) Word(id int) (string, bool) {
	if id < 0 || id >= len(v.idToWord) {
		return "", false
	}
	return v.idToWord[id], true
}

// Words returns every word ordered by id.
func (v *Vocabulary) Words() []string {
	return append([]string(nil), v.idToWord...)
}

// Encode maps normalized text to ids. Words outside the vocabulary encode
// to UnknownID.
func (v *Vocabulary) Encode(text string) []int {
	words := textnorm.Tokens(text)
	ids := make([]int, len(words))
	for i, word := range words {
		ids[i] = v.wordToID[word]
	}
	return ids
}

// EncodeCorpus encodes every author of c.
func (v *Vocabulary) EncodeCorpus(c *corpus.Raw) *corpus.Encoded {
	authors := c.Authors()
	seqs := make(map[string][]int, len(authors))
	for _, author := range authors {
		text, _ := c.Text(author)
		seqs[author] = v.Encode(text)
	}
	return corpus.NewEncoded(c.Name(), authors, seqs)
}

// WriteText writes one word per line; the line number is the id.
func (v *Vocabulary) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, word := range v.idToWord {
		if _, err := bw.WriteString(word); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadText loads a vocabulary written by WriteText.
func ReadText(r io.Reader) (*Vocabulary, error) {
	v := &Vocabulary{wordToID: make(map[string]int)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		word := scanner.Text()
		if _, dup := v.wordToID[word]; dup {
			return nil, fmt.Errorf("vocab: duplicate word %q on line %d", word, len(v.idToWord)+1)
		}
		v.wordToID[word] = len(v.idToWord)
		v.idToWord = append(v.idToWord, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read: %w", err)
	}
	if len(v.idToWord) == 0 || v.idToWord[UnknownID] != UnknownToken {
		return nil, errors.New("vocab: first line must be " + UnknownToken)
	}
	return v, nil
}
