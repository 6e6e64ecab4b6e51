package pipeline_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"

	"fewshot/internal/config"
	"fewshot/internal/episode"
	"fewshot/internal/logging"
	"fewshot/internal/pipeline"
	"fewshot/internal/split"
	"fewshot/internal/testsupport"
	"fewshot/internal/vocab"
)

var bookWords = []string{"The", "cat,", "sat!", "on", "mat."}

func writeLibrary(t *testing.T, cfg *config.Config) {
	t.Helper()
	for _, author := range []string{"austen", "bronte", "dickens", "twain"} {
		testsupport.WriteBook(t, cfg.Corpus.BooksDir, author, "one", testsupport.AuthorText(bookWords, 30))
		testsupport.WriteBook(t, cfg.Corpus.BooksDir, author, "two", testsupport.AuthorText(bookWords, 30))
	}
	testsupport.WriteBook(t, cfg.Corpus.BooksDir, "shorty", "pamphlet", testsupport.AuthorText(bookWords, 10))
	testsupport.WriteGloVe(t, cfg.Embedding.GloVePath, cfg.Embedding.Dim, "the", "cat", "zzz")
}

func buildFromConfig(t *testing.T, cfg *config.Config, seed uint64) (*pipeline.Dataset, error) {
	t.Helper()
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	src, err := pipeline.NewSource(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	opts.Source = src
	opts.Embeddings = pipeline.GloVeLoader(cfg.Embedding.GloVePath, cfg.Embedding.Dim)
	opts.Store = testsupport.MustOpenSplitStore(t, cfg)
	opts.Rand = rand.New(rand.NewPCG(seed, seed))
	opts.Logger = logging.NewNop()
	return pipeline.Build(context.Background(), opts)
}

func TestBuildBooksEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeLibrary(t, cfg)

	ds, err := buildFromConfig(t, cfg, 1)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	stats := ds.Stats()
	if stats.Corpus != config.SourceBooks || stats.RunID == "" {
		t.Fatalf("unexpected identity: %+v", stats)
	}
	if stats.Authors != 5 {
		t.Fatalf("Authors = %d, want 5", stats.Authors)
	}
	if !reflect.DeepEqual(stats.Excluded, []string{"shorty"}) {
		t.Fatalf("Excluded = %v, want [shorty]", stats.Excluded)
	}
	if stats.VocabSize != 6 || stats.EmbeddingHits != 2 || stats.EmbeddingDim != 4 {
		t.Fatalf("unexpected vocabulary stats: %+v", stats)
	}
	if stats.TrainAuthors != 2 || stats.ValidationAuthors != 2 {
		t.Fatalf("pool sizes = %d/%d, want 2/2", stats.TrainAuthors, stats.ValidationAuthors)
	}

	v := ds.Vocabulary()
	if got, want := v.Words(), []string{vocab.UnknownToken, "the", "cat", "sat", "on", "mat"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Words() = %v, want %v", got, want)
	}
	rows, cols := ds.Embedding().Dims()
	if rows != 6 || cols != 4 {
		t.Fatalf("embedding dims = %dx%d", rows, cols)
	}
	if got := mat.Row(nil, 2, ds.Embedding()); !reflect.DeepEqual(got, []float64{2, 2, 2, 2}) {
		t.Fatalf("cat vector = %v", got)
	}
	if got := mat.Row(nil, 0, ds.Embedding()); !reflect.DeepEqual(got, []float64{0, 0, 0, 0}) {
		t.Fatalf("unknown vector = %v", got)
	}

	pools := ds.Pools()
	all := append(slices.Clone(pools.Train), pools.Validation...)
	slices.Sort(all)
	if !reflect.DeepEqual(all, []string{"austen", "bronte", "dickens", "twain"}) {
		t.Fatalf("pool union = %v", all)
	}

	trainParams, valParams := pipeline.EpisodeParams(cfg)
	rng := rand.New(rand.NewPCG(2, 2))
	train, err := ds.TrainingEpisode(rng, trainParams)
	if err != nil {
		t.Fatalf("TrainingEpisode: %v", err)
	}
	if train.Train.Rows != 4 || train.Train.Cols != 4 || train.Val.Rows != 8 {
		t.Fatalf("training episode shape %dx%d / %d", train.Train.Rows, train.Train.Cols, train.Val.Rows)
	}
	for _, author := range train.Authors {
		if !slices.Contains(pools.Train, author) {
			t.Fatalf("training episode used non-train author %q", author)
		}
	}

	val, err := ds.ValidationEpisode(rng, valParams)
	if err != nil {
		t.Fatalf("ValidationEpisode: %v", err)
	}
	if val.Train.Cols != 8 || val.Val.Rows != 8 {
		t.Fatalf("validation episode shape %dx%d / %d", val.Train.Rows, val.Train.Cols, val.Val.Rows)
	}
	for _, author := range val.Authors {
		if !slices.Contains(pools.Validation, author) {
			t.Fatalf("validation episode used non-validation author %q", author)
		}
	}
	if ds.ValidationMode() != episode.ModeHalfSplit {
		t.Fatalf("ValidationMode = %v", ds.ValidationMode())
	}
}

func TestBuildReusesPersistedSplit(t *testing.T) {
	for _, backend := range []string{config.BackendJSON, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithBackend(backend))
			writeLibrary(t, cfg)

			first, err := buildFromConfig(t, cfg, 1)
			if err != nil {
				t.Fatalf("first Build: %v", err)
			}
			second, err := buildFromConfig(t, cfg, 77)
			if err != nil {
				t.Fatalf("second Build: %v", err)
			}
			if !second.Stats().SplitReused {
				t.Fatal("expected second build to reuse the split")
			}
			if first.Pools().ID != second.Pools().ID {
				t.Fatalf("split ids differ: %s vs %s", first.Pools().ID, second.Pools().ID)
			}
			if !reflect.DeepEqual(first.Pools().Validation, second.Pools().Validation) {
				t.Fatalf("validation pools differ: %v vs %v", first.Pools().Validation, second.Pools().Validation)
			}
		})
	}
}

func TestBuildCommentsCorpus(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSource(config.SourceComments))
	cfg.Corpus.MinAuthorTokens = 20
	words := []string{"Hello,", "world!", "go  is", "fun."}
	var rows []testsupport.Comment
	for _, author := range []string{"ann", "ben", "cy", "dee"} {
		for i := 0; i < 5; i++ {
			rows = append(rows, testsupport.Comment{Author: author, Text: testsupport.AuthorText(words, 8)})
		}
	}
	rows = append(rows, testsupport.Comment{Author: "lurker", Text: "hi"})
	testsupport.WriteComments(t, cfg.Corpus.CommentsDir, "golang.csv", rows...)
	testsupport.WriteGloVe(t, cfg.Embedding.GloVePath, cfg.Embedding.Dim, "hello", "go")

	ds, err := buildFromConfig(t, cfg, 3)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	stats := ds.Stats()
	if !reflect.DeepEqual(stats.Dropped, []string{"lurker"}) {
		t.Fatalf("Dropped = %v, want [lurker]", stats.Dropped)
	}
	if got, want := ds.Vocabulary().Words(), []string{vocab.UnknownToken, "hello", "world", "go", "is", "fun"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Words() = %v, want %v", got, want)
	}
	if stats.EmbeddingHits != 2 {
		t.Fatalf("EmbeddingHits = %d, want 2", stats.EmbeddingHits)
	}
}

func TestBuildFailsWithTooFewEligibleAuthors(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithValidationSize(5))
	writeLibrary(t, cfg)

	_, err := buildFromConfig(t, cfg, 1)
	if !errors.Is(err, split.ErrInsufficientAuthors) {
		t.Fatalf("expected ErrInsufficientAuthors, got %v", err)
	}
}

func TestBuildRequiresSourceAndEmbeddings(t *testing.T) {
	if _, err := pipeline.Build(context.Background(), pipeline.Options{}); err == nil {
		t.Fatal("expected error without source")
	}
	cfg := testsupport.NewConfig(t)
	src, err := pipeline.NewSource(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pipeline.Build(context.Background(), pipeline.Options{Source: src}); err == nil {
		t.Fatal("expected error without embedding loader")
	}
}

func TestExportWritesVocabularyAndEmbedding(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeLibrary(t, cfg)
	ds, err := buildFromConfig(t, cfg, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "export")
	if err := ds.Export(dir); err != nil {
		t.Fatalf("Export: %v", err)
	}

	vf, err := os.Open(filepath.Join(dir, pipeline.VocabularyFile))
	if err != nil {
		t.Fatal(err)
	}
	defer vf.Close()
	loaded, err := vocab.ReadText(vf)
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if !reflect.DeepEqual(loaded.Words(), ds.Vocabulary().Words()) {
		t.Fatalf("exported vocabulary %v", loaded.Words())
	}

	ef, err := os.Open(filepath.Join(dir, pipeline.EmbeddingFile))
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()
	var m mat.Dense
	if _, err := m.UnmarshalBinaryFrom(ef); err != nil {
		t.Fatalf("UnmarshalBinaryFrom: %v", err)
	}
	if !mat.Equal(&m, ds.Embedding()) {
		t.Fatal("exported embedding differs")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	books := testsupport.NewConfig(t)
	opts, err := pipeline.OptionsFromConfig(books)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Normalize.CollapseSpaces {
		t.Fatal("books should not collapse spaces")
	}
	if opts.ValidationMode != episode.ModeHalfSplit || opts.ValidationSize != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}

	comments := testsupport.NewConfig(t, testsupport.WithSource(config.SourceComments))
	comments.Episode.ValidationMode = config.ModeFull
	opts, err = pipeline.OptionsFromConfig(comments)
	if err != nil {
		t.Fatal(err)
	}
	if !opts.Normalize.CollapseSpaces || opts.ValidationMode != episode.ModeFull {
		t.Fatalf("unexpected comment options: %+v", opts)
	}

	comments.Episode.ValidationMode = "sideways"
	if _, err := pipeline.OptionsFromConfig(comments); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
