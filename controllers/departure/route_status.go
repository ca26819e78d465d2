package departure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"dispatch-board/logger"
	departureModel "dispatch-board/models/departure"
	"dispatch-board/types"
	departureTypes "dispatch-board/types/departure"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"google.golang.org/genai"
	"gorm.io/gorm"
)

// The board sits at the depot; route checks start from here unless the
// caller says otherwise.
const defaultCurrentLocation = "Depot, Liverpool"

// RouteStatus runs the route optimization check for one departure: live road
// warnings for the route from the depot to the departure's destination.
func (dc *DepartureController) RouteStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid departure id",
			Data:    nil,
		})
	}

	var row departureModel.Departure
	if err := dc.DB.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Departure not found",
				Data:    nil,
			})
		}
		logger.Error("Database error while loading departure", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	// Optional body: traffic data and an override for the start point.
	var body departureTypes.RouteStatusRequest
	_ = c.BodyParser(&body)

	req := departureTypes.RouteStatusRequest{
		CurrentLocation: body.CurrentLocation,
		Destination:     row.Destination,
		TrafficData:     body.TrafficData,
	}
	if req.CurrentLocation == "" {
		req.CurrentLocation = defaultCurrentLocation
	}
	if row.Via != nil {
		req.Via = *row.Via
	}

	return dc.runRouteSuggestion(c, req)
}

// Optimize runs the route optimization check for an ad-hoc route from the
// optimizer form.
func (dc *DepartureController) Optimize(c *fiber.Ctx) error {
	var req departureTypes.RouteStatusRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	return dc.runRouteSuggestion(c, req)
}

func (dc *DepartureController) runRouteSuggestion(c *fiber.Ctx, req departureTypes.RouteStatusRequest) error {
	requestID := uuid.NewString()

	result, err := suggestOptimizedRoute(req)
	if err != nil {
		status, message := classifyRouteError(err)
		logger.Error(fmt.Sprintf("Route suggestion failed for request %s", requestID), err)
		return dc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: message,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}
	result.RequestID = requestID

	logger.Success(fmt.Sprintf("Route suggestion for %s -> %s completed, request %s",
		req.CurrentLocation, req.Destination, requestID))

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Route suggestion generated successfully",
		Data:    result,
	})
}

// suggestOptimizedRoute asks Gemini for an optimized route and road-warning
// summary as schema-checked JSON.
func suggestOptimizedRoute(req departureTypes.RouteStatusRequest) (*departureTypes.RouteStatusResponse, error) {
	ctx := context.Background()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("API_KEY not found in environment variables")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	via := req.Via
	if via == "" {
		via = "None"
	}
	trafficData := req.TrafficData
	if trafficData == "" {
		trafficData = "No traffic data provided"
	}

	prompt := fmt.Sprintf(`You are an AI-powered route optimization expert. Your task is to analyze the provided route details and traffic information to suggest the most efficient path.

			Your primary focus is to identify and report any significant road warnings. This includes accidents, road closures, heavy congestion, or any other event that could cause major delays.

			Destination: %s
			Via (First Stop): %s
			Current Location: %s
			Traffic Data: %s

			Return ONLY valid JSON in this exact format:
			{
			"optimized_route": string,   // The suggested optimized route
			"estimated_time": string,    // Estimated time of arrival for the optimized route
			"reasoning": string,         // The reasoning behind the suggested route optimization
			"road_warnings": string      // Summary of warnings, accidents or significant traffic issues. If there are none, state "No significant warnings."
			}`,
		req.Destination, via, req.CurrentLocation, trafficData)

	content := &genai.Content{
		Parts: []*genai.Part{
			{Text: prompt},
		},
	}

	result, err := client.Models.GenerateContent(
		ctx,
		"gemini-2.5-flash-lite",
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.1)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate route suggestion: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated for route suggestion")
	}

	responseText := result.Candidates[0].Content.Parts[0].Text
	if responseText == "" {
		return nil, fmt.Errorf("empty response from route suggestion")
	}

	jsonText := extractJSONFromMarkdown(responseText)

	var parsed departureTypes.RouteStatusResponse
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w, response: %s", err, jsonText)
	}

	// Schema check: the dialog renders all three of these unconditionally.
	if parsed.OptimizedRoute == "" || parsed.EstimatedTime == "" || parsed.Reasoning == "" {
		return nil, fmt.Errorf("route suggestion response missing required fields: %s", jsonText)
	}

	return &parsed, nil
}

// classifyRouteError maps an AI-call failure to a user-facing message,
// distinguishing rate limits and credential problems from the generic case.
func classifyRouteError(err error) (int, string) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "quota"):
		return fiber.StatusTooManyRequests, "Route status is rate limited. Please try again in a moment."
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "API_KEY") || strings.Contains(msg, "API key") ||
		strings.Contains(msg, "PERMISSION_DENIED") || strings.Contains(msg, "UNAUTHENTICATED"):
		return fiber.StatusBadGateway, "Route status credentials are invalid or missing."
	default:
		return fiber.StatusBadGateway, "Could not retrieve route status. Please try again."
	}
}

// extractJSONFromMarkdown extracts JSON content from markdown code blocks
func extractJSONFromMarkdown(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") && strings.HasSuffix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
		return text
	}

	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) > 1 {
			jsonLines := lines[1 : len(lines)-1]
			return strings.Join(jsonLines, "\n")
		}
	}

	return text
}
