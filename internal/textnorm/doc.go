// Package textnorm flattens raw corpus text into the whitespace-tokenizable
// form the vocabulary builder expects.
//
// Normalization removes newlines, lowercases, and strips the ASCII
// punctuation set (!"#$%&'()*+,-./:;<=>?@[\]^_`{|}~). Comment corpora
// additionally collapse double spaces. Tokenization is a plain split on
// Unicode whitespace; nothing here is linguistically aware.
package textnorm
