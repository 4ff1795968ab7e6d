package runtime

import (
	"context"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/qna"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/qna/lexical"
)

// CPUName identifies the in-process backend.
const CPUName = "cpu"

// CPU runs the lexical reader in-process. It is always available.
type CPU struct{}

// NewCPU returns the CPU backend.
func NewCPU() *CPU { return &CPU{} }

func (*CPU) Name() string { return CPUName }

func (*CPU) Priority() int { return 10 }

func (*CPU) Setup(ctx context.Context) error { return ctx.Err() }

func (*CPU) Instantiate(_ context.Context, artifacts *qna.Artifacts) (qna.Model, error) {
	return lexical.FromArtifacts(artifacts)
}
