package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/idlab-discover/tinynas-cli/internal/apperr"
)

// TrainingPlan describes a standalone training run for confirmation.
type TrainingPlan struct {
	Description string
	Dataset     string
	Trainer     string
	Epochs      int
	ImageSize   int
	Batch       int
	Optimizer   string
	RunDir      string
}

// RenderTrainingPlan renders the plan as a box.
func RenderTrainingPlan(p TrainingPlan) string {
	var sb strings.Builder
	sb.WriteString(SectionHeader.Render("Training run"))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Model", Highlight.Render(p.Description)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Dataset", p.Dataset))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Trainer", p.Trainer))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Schedule", fmt.Sprintf("%d epochs · imgsz %d · batch %d · %s", p.Epochs, p.ImageSize, p.Batch, p.Optimizer)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Output", p.RunDir))
	return Box.Render(sb.String())
}

// ConfirmTraining shows the plan and asks before a (long) training run
// starts. A declined or aborted prompt returns apperr.ErrCancelled.
func ConfirmTraining(w io.Writer, p TrainingPlan) error {
	fmt.Fprintln(w, RenderTrainingPlan(p))

	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Start training?").
				Description(fmt.Sprintf("This runs %d epochs through the %s trainer.", p.Epochs, p.Trainer)).
				Value(&confirm).
				Affirmative("Yes").
				Negative("No"),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return apperr.ErrCancelled
		}
		return err
	}
	if !confirm {
		return apperr.ErrCancelled
	}
	return nil
}
