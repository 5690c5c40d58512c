package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/dto"
)

func TestAssignmentHandlerCreateAndList(t *testing.T) {
	ta := setupApp(t)
	id := ta.createAssignment(t, 7)

	resp := ta.do(t, http.MethodGet, "/api/v1/assignments?courseId=7", nil, studentID, "student")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listBody struct {
		Success bool                     `json:"success"`
		Data    []dto.AssignmentResponse `json:"data"`
		Meta    dto.PaginationMeta       `json:"meta"`
	}
	decodeResponse(t, resp, &listBody)
	require.True(t, listBody.Success)
	require.Len(t, listBody.Data, 1)
	require.Equal(t, id, listBody.Data[0].ID)
	require.EqualValues(t, 1, listBody.Meta.TotalItems)

	for _, question := range listBody.Data[0].Questions {
		require.Empty(t, question.CorrectAnswer, "students must not see reference answers")
	}

	resp = ta.do(t, http.MethodGet, fmt.Sprintf("/api/v1/assignments/%d", id), nil, teacherID, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var getBody struct {
		Data dto.AssignmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &getBody)
	require.Equal(t, "4", getBody.Data.Questions[0].CorrectAnswer)
}

func TestAssignmentHandlerRequiresStaffForWrites(t *testing.T) {
	ta := setupApp(t)

	payload := map[string]interface{}{
		"courseId": 1,
		"title":    "Sneaky",
		"dueDate":  time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"questions": []map[string]interface{}{
			{"text": "q", "type": "short-answer", "correctAnswer": "a", "marks": 1},
		},
	}

	resp := ta.do(t, http.MethodPost, "/api/v1/assignments", payload, studentID, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAssignmentHandlerValidationAndNotFound(t *testing.T) {
	ta := setupApp(t)

	resp := ta.do(t, http.MethodPost, "/api/v1/assignments", map[string]interface{}{"title": "x"}, teacherID, "teacher")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = ta.do(t, http.MethodGet, "/api/v1/assignments/999", nil, teacherID, "teacher")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = ta.do(t, http.MethodGet, "/api/v1/assignments/abc", nil, teacherID, "teacher")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAssignmentHandlerUpdateAndDelete(t *testing.T) {
	ta := setupApp(t)
	id := ta.createAssignment(t, 3)
	path := fmt.Sprintf("/api/v1/assignments/%d", id)

	resp := ta.do(t, http.MethodPut, path, map[string]interface{}{"title": "Arithmetic II"}, teacherID, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated struct {
		Data dto.AssignmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &updated)
	require.Equal(t, "Arithmetic II", updated.Data.Title)

	resp = ta.do(t, http.MethodDelete, path, nil, teacherID, "admin")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = ta.do(t, http.MethodGet, path, nil, teacherID, "teacher")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
