package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github/itish2003/caseqa/models"
	"github/itish2003/caseqa/services"
)

// jsonContentType is sent verbatim; gin's JSON renderer would add a charset.
const jsonContentType = "application/json"

// AnswerController serves the fulfillment webhook. It depends on the
// AnswerService to produce the reply text.
type AnswerController struct {
	answerService services.AnswerService
	logger        *zap.Logger
}

// NewAnswerController is called from main.go to inject the service dependency.
func NewAnswerController(service services.AnswerService, log *zap.Logger) *AnswerController {
	return &AnswerController{
		answerService: service,
		logger:        log,
	}
}

// Answer is the Gin handler for POST /. It never fails the request: every
// outcome, including malformed input and generation failures, is a 200 with
// a fulfillment envelope.
func (c *AnswerController) Answer(ctx *gin.Context) {
	log := requestLogger(ctx, c.logger)

	body, err := ctx.GetRawData()
	if err != nil {
		log.Warn("Could not read request body", zap.Error(err))
		body = nil
	}

	req, warnings := models.DecodeAnswerRequest(body)
	for _, w := range warnings {
		log.Warn(w)
	}

	log.Info("Analyzing question",
		zap.String("question", req.Question),
		zap.Int64("process_number", req.ProcessNumber),
	)

	result := c.answerService.Answer(ctx.Request.Context(), req)
	reply := result.ReplyText()

	log.Info("Full LLM response",
		zap.String("outcome", result.Outcome()),
		zap.String("text", reply),
	)

	writeFulfillment(ctx, reply)
}

// Health is the Gin handler for GET /health.
func (c *AnswerController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "caseqa",
	})
}

func writeFulfillment(ctx *gin.Context, text string) {
	payload, _ := json.Marshal(models.NewFulfillmentResponse(text))
	ctx.Data(http.StatusOK, jsonContentType, payload)
}
