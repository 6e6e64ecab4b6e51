package preflight

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"fewshot/internal/config"
	"fewshot/internal/embedding"
)

const minStateFreeBytes = 64 << 20

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCorpusDirectory verifies the raw corpus directory is readable and holds
// at least one file the configured adapter would ingest.
func CheckCorpusDirectory(source, dir string) Result {
	name := "Corpus (" + source + ")"
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", dir)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	files := 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if source == config.SourceComments && !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		files++
	}
	if files == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no input files)", dir)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s files)", dir, humanize.Comma(int64(files)))}
}

// CheckGloVe opens the embedding table and verifies that its first entry has
// the configured dimension. Only the first line is read.
func CheckGloVe(ctx context.Context, path string, dim int) Result {
	const name = "GloVe vectors"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured (set embedding.glove_path or FEWSHOT_GLOVE_PATH)"}
	}
	if err := ctx.Err(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	file, err := os.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}

	reader := bufio.NewReader(file)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: empty file)", path)}
	}
	_, components, err := embedding.SplitGloVeLine(line, dim)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: first entry: %v)", path, err)}
	}
	for _, field := range components {
		if _, err := strconv.ParseFloat(field, 64); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: non-numeric value %q)", path, field)}
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s, dim %d)", path, humanize.Bytes(uint64(info.Size())), dim)}
}

// CheckFreeSpace reports whether the filesystem holding path has at least
// minBytes available. A missing path is checked against its nearest parent.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	probe := path
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(probe, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", probe, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free", humanize.Bytes(free))
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %s)", detail, humanize.Bytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}
