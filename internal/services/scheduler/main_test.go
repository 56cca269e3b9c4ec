package scheduler

import (
	"testing"

	"go.uber.org/goleak"
)

// После Stop не должно оставаться ни цикла, ни горутин запусков.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
