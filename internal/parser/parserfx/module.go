package parserfx

import (
	"github.com/0x5457/corpus-embeddings/internal/parser"
	"github.com/0x5457/corpus-embeddings/internal/parser/textparser"
	"go.uber.org/fx"
)

// NewParser creates a new corpus text parser instance
func NewParser() parser.Parser {
	return textparser.New()
}

// Module provides parser components
var Module = fx.Module("parser",
	fx.Provide(NewParser),
)
