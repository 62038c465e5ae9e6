package server

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/zen-systems/erpassist/pkg/assist"
	"github.com/zen-systems/erpassist/pkg/vision"
)

type chatRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
	Pergunta string `json:"pergunta"`
}

type analyzeRequest struct {
	Question string `validate:"required,max=4000"`
}

type analyzeResponse struct {
	Analysis string `json:"analysis"`
}

func (s *Server) chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorBody(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Question == "" {
		req.Question = req.Pergunta
	}
	if err := s.validate.Struct(req); err != nil {
		return s.validationError(c, err)
	}

	state, err := s.turns.Run(c.UserContext(), req.Question)
	if err != nil {
		return s.turnError(c, err)
	}
	return c.JSON(state)
}

func (s *Server) turnError(c *fiber.Ctx, err error) error {
	var assistErr *assist.Error
	if !errors.As(err, &assistErr) {
		s.log.Error("turn failed", zap.Error(err))
		return errorBody(c, fiber.StatusInternalServerError, "internal error")
	}

	status := fiber.StatusInternalServerError
	switch assistErr.Code {
	case assist.ErrorInvalidInput:
		status = fiber.StatusBadRequest
	case assist.ErrorUpstream:
		status = fiber.StatusBadGateway
	case assist.ErrorClassification, assist.ErrorInternal:
		status = fiber.StatusInternalServerError
	}
	s.log.Warn("turn failed", zap.String("code", string(assistErr.Code)), zap.Error(err))
	return c.Status(status).JSON(fiber.Map{"error": assistErr.Reason, "code": assistErr.Code})
}

func (s *Server) analyzeImage(c *fiber.Ctx) error {
	req := analyzeRequest{Question: c.FormValue("question")}
	if req.Question == "" {
		req.Question = c.FormValue("pergunta")
	}
	if err := s.validate.Struct(req); err != nil {
		return s.validationError(c, err)
	}

	fh, err := c.FormFile("image_file")
	if err != nil {
		return errorBody(c, fiber.StatusNotFound, vision.NotFoundMessage)
	}
	f, err := fh.Open()
	if err != nil {
		return errorBody(c, fiber.StatusNotFound, vision.NotFoundMessage)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return errorBody(c, fiber.StatusBadRequest, "could not read upload")
	}

	analysis, err := s.vision.AnalyzeImage(c.UserContext(), data, req.Question)
	switch {
	case errors.Is(err, vision.ErrImageNotFound):
		return errorBody(c, fiber.StatusNotFound, vision.NotFoundMessage)
	case errors.Is(err, vision.ErrUnsupportedImage):
		return errorBody(c, fiber.StatusUnsupportedMediaType, err.Error())
	case err != nil:
		s.log.Error("image analysis failed", zap.Error(err))
		return errorBody(c, fiber.StatusBadGateway, "image analysis failed")
	}
	return c.JSON(analyzeResponse{Analysis: analysis})
}
