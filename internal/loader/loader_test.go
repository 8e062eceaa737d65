package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/bookbot/internal/config"
)

func TestParseText(t *testing.T) {
	pages := ParseText([]byte("Cover page\fFirst chapter text.\n\fSecond chapter text.\n\f\n"))
	require.Equal(t, []string{"Cover page", "First chapter text.\n", "Second chapter text.\n"}, pages)
	require.Equal(t, []string{"one page only"}, ParseText([]byte("one page only")))
	require.Equal(t, []string{"Title", "", "Text."}, ParseText([]byte("Title\f\fText.\f")))
	require.Empty(t, ParseText(nil))
}

func TestParseMarkdown(t *testing.T) {
	src := `# Part One

The rain fell on the
quiet town all night.

` + "```go\nfunc main() {}\n```" + `

## Chapter Two

She opened the *old* door slowly.

### Aside

- a list item with words

# Part Three
Last words of the book.
`
	pages := ParseMarkdown([]byte(src))
	require.Len(t, pages, 3)
	require.Equal(t, "The rain fell on the quiet town all night.", pages[0])
	require.Contains(t, pages[1], "She opened the old door slowly.")
	require.Contains(t, pages[1], "a list item with words")
	require.NotContains(t, pages[1], "Aside")
	require.Equal(t, "Last words of the book.", pages[2])
	for _, p := range pages {
		require.NotContains(t, p, "func main")
	}
}

func TestParseHTML(t *testing.T) {
	src := `<html><head><style>p{}</style></head><body>
<nav>Home | Next</nav>
<section class="page"><p>The first page of the story.</p></section>
<section class="page"><p>The second page.</p><script>var x = 1;</script></section>
</body></html>`
	pages, err := ParseHTML(strings.NewReader(src), "section.page")
	require.NoError(t, err)
	require.Equal(t, []string{"The first page of the story.", "The second page."}, pages)

	pages, err = ParseHTML(strings.NewReader(src), "")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.NotContains(t, pages[0], "Home | Next")
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := Parse(strings.NewReader("x"), "pdf", "")
	require.Error(t, err)
}

func TestLoadLocalSkipsFrontMatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.txt")
	require.NoError(t, os.WriteFile(path, []byte("Title\fCopyright\fChapter one begins here.\fChapter two."), 0o644))

	doc, err := Load(context.Background(), config.DocumentConfig{Source: "local", Path: path, Format: "text", SkipPages: 2})
	require.NoError(t, err)
	require.Equal(t, "book.txt", doc.Name)
	require.Equal(t, []string{"Chapter one begins here.", "Chapter two."}, doc.Pages)

	doc, err = Load(context.Background(), config.DocumentConfig{Source: "local", Path: path, Format: "text", SkipPages: 10})
	require.NoError(t, err)
	require.Empty(t, doc.Pages)
}

func TestLoadSkipCountsBlankPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.txt")
	require.NoError(t, os.WriteFile(path, []byte("Title\f\n\fCopyright\f \fChapter one begins here.\f\fChapter two.\f"), 0o644))

	doc, err := Load(context.Background(), config.DocumentConfig{Source: "local", Path: path, Format: "text", SkipPages: 4})
	require.NoError(t, err)
	require.Equal(t, []string{"Chapter one begins here.", "Chapter two."}, doc.Pages)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), config.DocumentConfig{Source: "local", Path: "/nonexistent/book.txt", Format: "text"})
	require.Error(t, err)
}

func TestS3Endpoint(t *testing.T) {
	require.Equal(t, "", s3Endpoint("", true))
	require.Equal(t, "http://minio:9000", s3Endpoint("minio:9000", false))
	require.Equal(t, "https://s3.example.com", s3Endpoint("s3.example.com", true))
	require.Equal(t, "http://x", s3Endpoint("http://x", true))
}
