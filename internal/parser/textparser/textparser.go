package textparser

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/0x5457/corpus-embeddings/internal/models"
	"github.com/0x5457/corpus-embeddings/internal/parser"
	"github.com/0x5457/corpus-embeddings/internal/util"
)

const DefaultMaxChars = 2000

var extensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
}

// TextParser splits plain-text corpus files into paragraph-packed documents.
type TextParser struct {
	MaxChars int
	// Categories translates a directory name to a category label. When nil,
	// a Map.txt at the corpus root is used.
	Categories map[string]string

	mu       sync.Mutex
	rootCats map[string]map[string]string
}

func New() *TextParser { return &TextParser{MaxChars: DefaultMaxChars} }

var _ parser.Parser = (*TextParser)(nil)

func (p *TextParser) ParseCorpus(root string) ([]models.Document, error) {
	var docs []models.Document
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !Supported(path) {
			return nil
		}
		ds, perr := p.ParseFileWithRoot(root, path)
		if perr != nil {
			return perr
		}
		docs = append(docs, ds...)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return docs, nil
}

// Supported reports whether path is a corpus text file.
func Supported(path string) bool {
	if filepath.Base(path) == parser.CategoryFile {
		return false
	}
	return extensions[strings.ToLower(filepath.Ext(path))]
}

func (p *TextParser) ParseFile(path string) ([]models.Document, error) {
	return p.ParseFileWithRoot("", path)
}

func (p *TextParser) ParseFileWithRoot(root, path string) ([]models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	source := path
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil {
			source = filepath.ToSlash(rel)
		}
	}
	category := p.category(root, path)
	chunks := pack(paragraphs(string(content)), p.maxChars())
	docs := make([]models.Document, 0, len(chunks))
	for i, c := range chunks {
		docs = append(docs, models.Document{
			ID:        util.GenerateID(source, i, c.start, c.end),
			Source:    source,
			Category:  category,
			StartLine: int32(c.start),
			EndLine:   int32(c.end),
			Content:   c.text,
		})
	}
	return docs, nil
}

func (p *TextParser) maxChars() int {
	if p.MaxChars <= 0 {
		return DefaultMaxChars
	}
	return p.MaxChars
}

// category is the parent directory name, empty for files directly under root.
func (p *TextParser) category(root, path string) string {
	dir := filepath.Dir(path)
	if root != "" && filepath.Clean(dir) == filepath.Clean(root) {
		return ""
	}
	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	if label, ok := p.categoriesFor(root)[name]; ok {
		return label
	}
	return name
}

func (p *TextParser) categoriesFor(root string) map[string]string {
	if p.Categories != nil || root == "" {
		return p.Categories
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if cats, ok := p.rootCats[root]; ok {
		return cats
	}
	// a missing or unreadable map leaves directory names as categories
	cats, _ := parser.Categories(filepath.Join(root, parser.CategoryFile))
	if p.rootCats == nil {
		p.rootCats = make(map[string]map[string]string)
	}
	p.rootCats[root] = cats
	return cats
}

type span struct {
	text       string
	start, end int
}

func paragraphs(content string) []span {
	lines := strings.Split(content, "\n")
	var out []span
	var buf []string
	start := 0
	flush := func(end int) {
		if len(buf) > 0 {
			out = append(out, span{text: strings.Join(buf, "\n"), start: start, end: end})
			buf = nil
		}
	}
	for i, l := range lines {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			flush(i)
			continue
		}
		if len(buf) == 0 {
			start = i + 1
		}
		buf = append(buf, l)
	}
	flush(len(lines))
	return out
}

// pack joins consecutive paragraphs while they fit in max runes and splits
// paragraphs that are longer on their own.
func pack(paras []span, max int) []span {
	var out []span
	var cur *span
	for _, pg := range paras {
		for _, piece := range splitLong(pg, max) {
			if cur != nil &&
				utf8.RuneCountInString(cur.text)+2+utf8.RuneCountInString(piece.text) <= max {
				cur.text += "\n\n" + piece.text
				cur.end = piece.end
				continue
			}
			if cur != nil {
				out = append(out, *cur)
			}
			next := piece
			cur = &next
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

func splitLong(s span, max int) []span {
	if utf8.RuneCountInString(s.text) <= max {
		return []span{s}
	}
	runes := []rune(s.text)
	var out []span
	for i := 0; i < len(runes); i += max {
		end := min(i+max, len(runes))
		out = append(out, span{text: string(runes[i:end]), start: s.start, end: s.end})
	}
	return out
}
