package server

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/retrain"
)

type feedbackRequest struct {
	UserID       *string `json:"user_id"`
	Text         string  `json:"text"`
	CorrectLabel string  `json:"correct_label"`
}

type feedbackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type predictRequest struct {
	Text string `json:"text"`
}

func parseBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		return common.NewValidationError("body", err.Error())
	}
	return nil
}

func (s *Server) postFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Text) == "" {
		return common.NewValidationError("text", "must not be empty")
	}
	if strings.TrimSpace(req.CorrectLabel) == "" {
		return common.NewValidationError("correct_label", "must not be empty")
	}

	id, err := s.deps.Feedback.AppendFeedback(c.UserContext(), req.Text, req.CorrectLabel, req.UserID)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	return c.JSON(feedbackResponse{
		Status:  "saved",
		ID:      id,
		Message: fmt.Sprintf("Feedback saved successfully with ID %d", id),
	})
}

func (s *Server) getFeedbackCount(c *fiber.Ctx) error {
	count, err := s.deps.Feedback.CountFeedback(c.UserContext())
	if err != nil {
		return fmt.Errorf("failed to get feedback count: %w", err)
	}

	return c.JSON(fiber.Map{
		"status":         "ok",
		"total_feedback": count,
		"message":        fmt.Sprintf("Total feedback samples: %d", count),
	})
}

func (s *Server) postRetrain(c *fiber.Ctx) error {
	var req retrain.Request
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := s.deps.Retrainer.Run(c.UserContext(), req)
	if err != nil && res.Status == "" {
		return err
	}
	return c.JSON(res)
}

func (s *Server) getRetrainStatus(c *fiber.Ctx) error {
	body := fiber.Map{
		"sync_mode":        s.deps.Retrainer.Sync(),
		"supported_models": retrain.SupportedModels,
		"supported_modes":  retrain.SupportedModes,
		"message":          "Retrain endpoint is ready!",
	}
	if last, ok := s.deps.Retrainer.LastResult(); ok {
		body["last_result"] = last
	}
	return c.JSON(body)
}

func (s *Server) postPredict(c *fiber.Ctx) error {
	var req predictRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := s.deps.Classifier.Classify(c.UserContext(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (s *Server) getHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "ok",
		"model_loaded": s.deps.Models.Ready(),
		"labels":       s.deps.Models.Labels(),
	})
}
