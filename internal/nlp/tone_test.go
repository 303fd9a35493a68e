package nlp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreTone_MarkerCounting(t *testing.T) {
	tone := ScoreTone("Our professional business team will definitely help")
	// professional + business = 2 markers / 3
	assert.InDelta(t, 2.0/3.0, tone.Professional, 1e-9)
	// will + definitely = 2 markers / 3
	assert.InDelta(t, 2.0/3.0, tone.Confident, 1e-9)
	assert.Equal(t, 0.0, tone.Friendly)
	assert.Equal(t, 0.0, tone.Empathetic)
}

func TestScoreTone_ClampsAtOne(t *testing.T) {
	// All five professional markers: 5/3 clamps to 1.0.
	tone := ScoreTone("professional business corporate formal official")
	assert.Equal(t, 1.0, tone.Professional)
}

func TestScoreTone_CaseInsensitive(t *testing.T) {
	lower := ScoreTone("hello thanks")
	upper := ScoreTone("HELLO THANKS")
	assert.Equal(t, lower, upper)
	assert.InDelta(t, 2.0/4.0, upper.Friendly, 1e-9)
}

func TestScoreTone_SubstringMatching(t *testing.T) {
	// Marker matching is substring containment, so words embedded in
	// longer words still count.

	// "informal" contains "formal"
	assert.InDelta(t, 1.0/3.0, ScoreTone("an informal note").Professional, 1e-9)
	// "this" contains "hi"
	assert.InDelta(t, 1.0/4.0, ScoreTone("read this").Friendly, 1e-9)
	// "carefully" contains "care"
	assert.InDelta(t, 1.0/3.0, ScoreTone("written carefully").Empathetic, 1e-9)
}

func TestScoreTone_EmptyText(t *testing.T) {
	tone := ScoreTone("")
	assert.Equal(t, 0.0, tone.Professional)
	assert.Equal(t, 0.0, tone.Friendly)
	assert.Equal(t, 0.0, tone.Confident)
	assert.Equal(t, 0.0, tone.Empathetic)
}

func TestScoreTone_Deterministic(t *testing.T) {
	text := "Hello, I can assure you our corporate team understands"
	assert.Equal(t, ScoreTone(text), ScoreTone(text))
}

func TestScoreTone_ConcurrentCalls(t *testing.T) {
	// The scorer runs on every analyze request; concurrent calls must not
	// share lowercasing state. Run under -race.
	text := "Our professional business team will definitely help"
	want := ScoreTone(text)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if got := ScoreTone(text); got != want {
					t.Errorf("ScoreTone = %+v, want %+v", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}
