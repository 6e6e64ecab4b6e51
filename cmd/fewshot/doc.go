// Command fewshot builds few-shot authorship datasets from book or comment
// corpora and samples N-way K-shot episodes from them.
//
// Common invocations:
//
//	fewshot build --seed 1              run the pipeline and print statistics
//	fewshot build --export ./out        also write vocab.txt and embedding.bin
//	fewshot sample --validation         draw one validation episode
//	fewshot check                       verify corpus, GloVe and state paths
//	fewshot split show                  list the persisted held-out authors
//	fewshot --corpus comments build     use the comments corpus
package main
