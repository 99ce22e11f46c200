package parser

import "github.com/0x5457/corpus-embeddings/internal/models"

type Parser interface {
	ParseFile(path string) ([]models.Document, error)
	ParseFileWithRoot(root, path string) ([]models.Document, error)
	ParseCorpus(root string) ([]models.Document, error)
}
