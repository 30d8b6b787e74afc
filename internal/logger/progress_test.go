package logger

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressBarRender(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		current int
		want    string
	}{
		{"empty", 10, 0, "[          ] 0/10 (0%)"},
		{"half", 10, 5, "[=====     ] 5/10 (50%)"},
		{"done", 10, 10, "[==========] 10/10 (100%)"},
		{"over", 10, 12, "[==========] 12/10 (100%)"},
		{"zero total", 0, 0, "[          ] 0/0 (0%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, 10)
			pb.Update(tt.current)
			assert.Equal(t, tt.want, pb.Render())
		})
	}
}

func TestProgressBarDefaultsAndPrefix(t *testing.T) {
	pb := NewProgressBar(4, 0)
	pb.SetPrefix("spect ")
	pb.Update(1)
	assert.Equal(t, "spect [==        ] 1/4 (25%)", pb.Render())
	assert.Equal(t, 25, pb.Percentage())
	assert.Equal(t, 4, pb.Total())
}

func TestProgressBarConcurrentIncrement(t *testing.T) {
	pb := NewProgressBar(100, 10)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pb.Increment()
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, pb.Current())
	assert.Equal(t, 100, pb.Percentage())
}

func TestLogProgressDispatch(t *testing.T) {
	pb := NewProgressBar(2, 2)
	pb.Update(1)

	console := &bytes.Buffer{}
	LogProgress(NewConsoleLogger(console, "info"), pb)
	assert.Contains(t, console.String(), "[= ] 1/2 (50%)")
	assert.NotContains(t, console.String(), "[INFO]", "console renders bars without a level tag")

	plain := &bytes.Buffer{}
	m := Multi(NewConsoleLogger(plain, "warn"))
	LogProgress(m, pb)
	assert.Empty(t, plain.String(), "progress is info level")

	rec := &recordingLogger{}
	LogProgress(rec, pb)
	assert.Equal(t, []string{"[= ] 1/2 (50%)"}, rec.info)
}

type recordingLogger struct {
	NoOpLogger
	info []string
}

func (r *recordingLogger) LogInfo(message string) { r.info = append(r.info, message) }
