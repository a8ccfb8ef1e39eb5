package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/zeu5/tabular-dp/core"
)

// TraceAnalyzer dumps every episode trace to a text file under traces/.
type TraceAnalyzer struct {
	savePath string
	exp      string
	// will save the trace only once the episode number reaches this threshold
	thresholdEpisode int
}

var _ core.Analyzer = &TraceAnalyzer{}

func NewTraceAnalyzer(savePath string, threshold int) *TraceAnalyzer {
	if _, err := os.Stat(path.Join(savePath, "traces")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(savePath, "traces"), 0755)
	}
	return &TraceAnalyzer{
		savePath:         path.Join(savePath, "traces"),
		thresholdEpisode: threshold,
	}
}

func (a *TraceAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	if ctx.Episode < a.thresholdEpisode {
		return
	}
	fileName := fmt.Sprintf("%d_trace_%d.txt", ctx.Run, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_trace_%d.txt", ctx.Run, a.exp, ctx.Episode)
	}
	os.WriteFile(path.Join(a.savePath, fileName), []byte(traceToString(trace)), 0644)
}

func traceToString(trace *core.Trace) string {
	buf := new(bytes.Buffer)
	for i := 0; i < trace.Len(); i++ {
		buf.WriteString(fmt.Sprintf("Step %d\n%s\n", i, stepToString(trace.Step(i))))
	}
	buf.WriteString(fmt.Sprintf("Return: %.4f\n", trace.Return()))
	return buf.String()
}

func stepToString(step *core.Step) string {
	return fmt.Sprintf(
		"State: %s\nAction: %s\nNext State: %s\nReward: %.4f\n%s",
		hashOf(step.State),
		hashOf(step.Action),
		hashOf(step.NextState),
		step.Reward,
		infoToString(step.Misc),
	)
}

type hasher interface {
	Hash() string
}

func hashOf(h hasher) string {
	if h == nil {
		return "<none>"
	}
	return h.Hash()
}

func infoToString(info map[string]interface{}) string {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += fmt.Sprintf("%s: %v\n", k, info[k])
	}
	return out
}

func (a *TraceAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *TraceAnalyzer) Reset() {
	// do nothing
}

type TraceAnalyzerConstructor struct {
	SavePath         string
	ThresholdEpisode int
}

var _ core.AnalyzerConstructor = &TraceAnalyzerConstructor{}

func NewTraceAnalyzerConstructor(savePath string, thresholdEpisode int) *TraceAnalyzerConstructor {
	return &TraceAnalyzerConstructor{
		SavePath:         savePath,
		ThresholdEpisode: thresholdEpisode,
	}
}

func (c *TraceAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewTraceAnalyzer(c.SavePath, c.ThresholdEpisode)
	a.exp = exp
	return a
}
