// Package surface is the host side of the content surface: it renders commands
// into scripts, evaluates them one at a time over a transport and routes the
// navigation requests the surface raises back to the host.
package surface

import (
	"context"
	"strings"
)

// ReferenceLabel is the fixed label identity material is registered under.
const ReferenceLabel = "Reference"

// Command names understood by the content surface.
const (
	CmdRegisterVector    = "registerExternalImage"
	CmdRegisterBase64    = "registerExternalImageFromBase64"
	CmdRegisterNoVector  = "registerExternalImageNoVector"
	CmdStopCamera        = "stopCamera"
	CmdGetLastMatchImage = "getLastMatchImage"
)

// Arg is a single rendered argument.
type Arg struct {
	Value string
	Raw   bool // emitted verbatim (e.g. an array literal) instead of quoted
}

// Quoted is a string argument rendered as a single-quoted literal.
func Quoted(s string) Arg { return Arg{Value: s} }

// Raw is an argument spliced into the script as-is.
func Raw(expr string) Arg { return Arg{Value: expr, Raw: true} }

// Command is a named operation evaluated inside the content surface.
type Command struct {
	Name string
	Args []Arg
}

// Script renders the command as the call expression the surface evaluates.
func (c Command) Script() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		if a.Raw {
			b.WriteString(a.Value)
			continue
		}
		b.WriteByte('\'')
		b.WriteString(escapeSingleQuoted(a.Value))
		b.WriteByte('\'')
	}
	b.WriteByte(')')
	return b.String()
}

func (c Command) String() string { return c.Name }

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

func escapeSingleQuoted(s string) string { return quoteEscaper.Replace(s) }

// RegisterVector registers an already computed feature vector expression.
func RegisterVector(vectorExpr string) Command {
	return Command{Name: CmdRegisterVector, Args: []Arg{Raw(vectorExpr), Quoted(ReferenceLabel)}}
}

// RegisterBase64 registers a reference image; the surface computes the vector itself.
func RegisterBase64(image string) Command {
	return Command{Name: CmdRegisterBase64, Args: []Arg{Quoted(image), Quoted(ReferenceLabel)}}
}

// RegisterNoVector selects detect-only mode.
func RegisterNoVector() Command { return Command{Name: CmdRegisterNoVector} }

// StopCamera asks the surface to release the camera.
func StopCamera() Command { return Command{Name: CmdStopCamera} }

// GetLastMatchImage fetches the last captured frame as a (data URI) string.
func GetLastMatchImage() Command { return Command{Name: CmdGetLastMatchImage} }

// Evaluator runs commands on the content surface's single execution thread.
type Evaluator interface {
	Evaluate(ctx context.Context, cmd Command) (string, error)
}

// Poster sends a command without waiting for the surface to answer it.
// Implementations must not hold up other commands while the answer is pending.
type Poster interface {
	Post(ctx context.Context, cmd Command) error
}

// NormalizeResult maps the surface's null/undefined results to "".
func NormalizeResult(s string) string {
	switch strings.TrimSpace(s) {
	case "", "null", "undefined":
		return ""
	}
	return s
}
