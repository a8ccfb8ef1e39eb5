package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"github.com/zeu5/tabular-dp/core"
)

// ErrorAnalyzer writes the trace of every failed episode under errors/.
type ErrorAnalyzer struct {
	savePath string
	exp      string
}

var _ core.Analyzer = &ErrorAnalyzer{}

func NewErrorAnalyzer(savePath string) *ErrorAnalyzer {
	if _, err := os.Stat(path.Join(savePath, "errors")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(savePath, "errors"), 0755)
	}
	return &ErrorAnalyzer{
		savePath: path.Join(savePath, "errors"),
	}
}

func (a *ErrorAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	err := trace.Error()
	if err == nil {
		return
	}
	buf := new(bytes.Buffer)
	buf.WriteString(fmt.Sprintf("Error: %s\n", err))
	buf.WriteString(traceToString(trace))

	fileName := fmt.Sprintf("%d_error_%d.txt", ctx.Run, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_error_%d.txt", ctx.Run, a.exp, ctx.Episode)
	}
	os.WriteFile(path.Join(a.savePath, fileName), buf.Bytes(), 0644)
}

func (a *ErrorAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *ErrorAnalyzer) Reset() {
	// do nothing
}

type ErrorAnalyzerConstructor struct {
	SavePath string
}

var _ core.AnalyzerConstructor = &ErrorAnalyzerConstructor{}

func NewErrorAnalyzerConstructor(savePath string) *ErrorAnalyzerConstructor {
	return &ErrorAnalyzerConstructor{
		SavePath: savePath,
	}
}

func (e *ErrorAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewErrorAnalyzer(e.SavePath)
	a.exp = exp
	return a
}
