package skills

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/commodities/internal/domain"
)

type call struct {
	name string
	args []string
}

// fakeExecutor answers with canned stdout keyed by script file name
type fakeExecutor struct {
	stdout map[string]string
	stderr string
	err    error
	calls  []call
}

func (f *fakeExecutor) Run(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.err != nil {
		return nil, []byte(f.stderr), f.err
	}
	script := strings.TrimSuffix(filepath.Base(args[0]), ".py")
	return []byte(f.stdout[script]), nil, nil
}

func newTestRunner(t *testing.T, exec Executor, scripts map[string][]string) *Runner {
	t.Helper()
	dir := t.TempDir()
	for skill, names := range scripts {
		scriptDir := filepath.Join(dir, skill, "scripts")
		require.NoError(t, os.MkdirAll(scriptDir, 0o755))
		for _, name := range names {
			require.NoError(t, os.WriteFile(filepath.Join(scriptDir, name+".py"), []byte("print('[]')\n"), 0o644))
		}
	}
	return NewRunner(Config{Dir: dir, Interpreter: "python3", Timeout: time.Second}, exec, zerolog.Nop())
}

func TestRunner_MissingScript(t *testing.T) {
	runner := newTestRunner(t, &fakeExecutor{}, nil)

	var out []any
	err := runner.RunJSON(context.Background(), "scraper", "news", nil, &out)

	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestRunner_CommandFailureCarriesStderr(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 1"), stderr: "Traceback: boom\n"}
	runner := newTestRunner(t, exec, map[string][]string{"scraper": {"news"}})

	var out []any
	err := runner.RunJSON(context.Background(), "scraper", "news", nil, &out)

	var skillErr *Error
	require.ErrorAs(t, err, &skillErr)
	assert.Equal(t, "scraper", skillErr.Skill)
	assert.Equal(t, "Traceback: boom", skillErr.Stderr)
	assert.Contains(t, err.Error(), "exit status 1")
}

func TestRunner_OutputHandling(t *testing.T) {
	tests := []struct {
		name    string
		stdout  string
		wantErr bool
		wantLen int
	}{
		{name: "empty output", stdout: "  \n", wantLen: 0},
		{name: "array", stdout: `[{"a":1},{"a":2}]`, wantLen: 2},
		{name: "malformed", stdout: `[{"a":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{stdout: map[string]string{"news": tt.stdout}}
			runner := newTestRunner(t, exec, map[string][]string{"scraper": {"news"}})

			var out []map[string]any
			err := runner.RunJSON(context.Background(), "scraper", "news", nil, &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, out, tt.wantLen)
		})
	}
}

func TestFutures_Instruments(t *testing.T) {
	exec := &fakeExecutor{stdout: map[string]string{"main-contracts": `[
		{"code":"RB","name":"螺纹钢","exchange":"SHFE","main_contract":"rb2505","price":"3,712","change_1d":1.5,"change_5d":"-2.25","volume":100},
		{"code":"AU","name":"黄金","exchange":"SHFE","main_contract":"au2506","price":560.2,"change_1d":null}
	]`}}
	runner := newTestRunner(t, exec, map[string][]string{futuresSkill: {"main-contracts"}})

	got, err := NewFutures(runner).Instruments(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "RB", got[0].ID)
	assert.Equal(t, "rb2505", got[0].MainContract)
	assert.InDelta(t, 3712.0, got[0].Price, 1e-9)
	assert.Equal(t, map[int]float64{1: 1.5, 5: -2.25}, got[0].Changes)
	assert.Equal(t, map[int]float64{1: 0}, got[1].Changes)
	assert.Equal(t, "python3", exec.calls[0].name)
}

func TestFutures_InstrumentsRejectsMissingCode(t *testing.T) {
	exec := &fakeExecutor{stdout: map[string]string{"main-contracts": `[{"name":"x","price":1}]`}}
	runner := newTestRunner(t, exec, map[string][]string{futuresSkill: {"main-contracts"}})

	_, err := NewFutures(runner).Instruments(context.Background())

	assert.ErrorContains(t, err, "missing code")
}

func TestFutures_Bars(t *testing.T) {
	exec := &fakeExecutor{stdout: map[string]string{"history": `[
		{"date":"2025-02-27","open":1,"high":2,"low":0.5,"close":1.5,"volume":10},
		{"date":"2025-02-28","open":1.5,"high":2.5,"low":1,"close":2,"volume":"12"}
	]`}}
	runner := newTestRunner(t, exec, map[string][]string{futuresSkill: {"history"}})

	bars, err := NewFutures(runner).Bars(context.Background(), "rb2505", 15)

	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, domain.NewDate(2025, time.February, 28), bars[1].Date)
	assert.InDelta(t, 12.0, bars[1].Volume, 1e-9)
	assert.Equal(t, []string{"--contract", "rb2505", "--days", "15"}, exec.calls[0].args[1:])
}

func TestFutures_Chain(t *testing.T) {
	exec := &fakeExecutor{stdout: map[string]string{"options": `[
		{"code":"rb2505C3800","strike":3800,"expiry":"2025-04-25","type":"C","price":52,"volume":900},
		{"code":"rb2505P3600","strike":3600,"expiry":"2025-04-25","type":"put","price":41,"volume":400}
	]`}}
	runner := newTestRunner(t, exec, map[string][]string{futuresSkill: {"options"}})

	chain, err := NewFutures(runner).Chain(context.Background(), "RB")

	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, domain.OptionCall, chain[0].OptionType)
	assert.Equal(t, domain.OptionPut, chain[1].OptionType)
	assert.Equal(t, "RB", chain[1].Underlying)
	assert.Equal(t, domain.NewDate(2025, time.April, 25), chain[0].Expiry)
}

func TestFutures_ChainRejectsUnknownType(t *testing.T) {
	exec := &fakeExecutor{stdout: map[string]string{"options": `[{"code":"x","strike":1,"expiry":"2025-04-25","type":"straddle"}]`}}
	runner := newTestRunner(t, exec, map[string][]string{futuresSkill: {"options"}})

	_, err := NewFutures(runner).Chain(context.Background(), "RB")

	assert.Error(t, err)
}

func TestScraper_News(t *testing.T) {
	exec := &fakeExecutor{stdout: map[string]string{"news": `[
		{"title":"螺纹钢期货上涨","source":"sina","published":"2025-02-28 14:30","sentiment":"Positive"},
		{"title":"无日期","source":"eastmoney","published":"yesterday"}
	]`}}
	runner := newTestRunner(t, exec, map[string][]string{scraperSkill: {"news"}})
	scraper := NewScraper(runner)
	scraper.now = func() time.Time { return time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC) }

	items, err := scraper.News(context.Background(), "螺纹钢", []string{"sina", "eastmoney"}, 5)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.NewDate(2025, time.February, 28), items[0].Published)
	assert.Equal(t, domain.SentimentPositive, items[0].Sentiment)
	assert.Equal(t, domain.NewDate(2025, time.March, 1), items[1].Published)
	assert.Equal(t,
		[]string{"--keyword", "螺纹钢", "--sources", "sina,eastmoney", "--max", "5", "--json"},
		exec.calls[0].args[1:])
}

func TestMailbox_Alerts(t *testing.T) {
	exec := &fakeExecutor{stdout: map[string]string{"search": `[
		{"subject":"沪铜 price alert","snippet":"crossed 78000","published":"2025-03-01T08:00:00Z"}
	]`}}
	runner := newTestRunner(t, exec, map[string][]string{gmailSkill: {"search"}})

	items, err := NewMailbox(runner, "label:alerts").Alerts(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "沪铜 price alert", items[0].Title)
	assert.Equal(t, "crossed 78000", items[0].Summary)
	assert.Equal(t, "gmail", items[0].Source)
	assert.Equal(t, domain.NewDate(2025, time.March, 1), items[0].Published)
	assert.Equal(t, []string{"--query", "label:alerts", "--today", "--json"}, exec.calls[0].args[1:])
}
