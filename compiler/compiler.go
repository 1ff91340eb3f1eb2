// Package compiler wires the lexer, parser and emitter together into a
// three-step lex/parse/emit pipeline behind a New/SetDebug/Compile
// surface.
package compiler

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/mi-wada/kanic/emitter"
	"github.com/mi-wada/kanic/lexer"
	"github.com/mi-wada/kanic/parser"
)

// Compiler holds the program being compiled and whether debug tracing
// and the debug breakpoint are enabled.
type Compiler struct {
	source string
	debug  bool
	logger zerolog.Logger
}

// New creates a Compiler for source. Debug tracing is off until SetDebug
// is called.
func New(source string) *Compiler {
	return &Compiler{source: source, logger: zerolog.Nop()}
}

// SetDebug toggles the emission of an "int3" breakpoint in the generated
// assembly and structured phase tracing on stderr.
func (c *Compiler) SetDebug(debug bool) {
	c.debug = debug
	if debug {
		c.logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		c.logger = zerolog.Nop()
	}
}

// Compile lexes, parses and emits c.source, returning the assembly
// listing or the first lex/parse/internal error encountered.
func (c *Compiler) Compile() (string, error) {
	tokens, err := lexer.New(c.source).Tokenize()
	if err != nil {
		return "", err
	}
	if c.debug {
		c.logger.Debug().Int("tokens", len(tokens)).Msg("lexed source")
	}

	stmts, frameSize, err := parser.New(tokens, len(c.source)).Parse()
	if err != nil {
		return "", err
	}
	if c.debug {
		c.logger.Debug().Int("statements", len(stmts)).Int("frame_size", frameSize).Msg("parsed program")
	}

	out, err := emitter.New(c.debug, c.logger).Emit(stmts, frameSize)
	if err != nil {
		return "", err
	}
	if c.debug {
		c.logger.Debug().Int("bytes", len(out)).Msg("emitted assembly")
	}

	return out, nil
}
