package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/dto"
)

func TestCertificateHandlerListAndRevoke(t *testing.T) {
	ta := setupApp(t)
	id := ta.createAssignment(t, 8)
	submitAndFetchResult(t, ta, id, studentID, `{"answers":[{"questionId":0,"answer":"4"},{"questionId":1,"answer":"Paris"}]}`)

	resp := ta.do(t, http.MethodGet, "/api/v1/certificates/me", nil, studentID, "student")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var mine struct {
		Data []dto.CertificateResponse `json:"data"`
	}
	decodeResponse(t, resp, &mine)
	require.Len(t, mine.Data, 1)
	certificate := mine.Data[0]
	require.Equal(t, "issued", certificate.Status)
	require.Regexp(t, `^CERT-\d+-\d{4}$`, certificate.CertificateNumber)

	revokePath := fmt.Sprintf("/api/v1/certificates/%d/revoke", certificate.ID)
	resp = ta.do(t, http.MethodPatch, revokePath, nil, studentID, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = ta.do(t, http.MethodPatch, revokePath, nil, teacherID, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var revoked struct {
		Data dto.CertificateResponse `json:"data"`
	}
	decodeResponse(t, resp, &revoked)
	require.Equal(t, "revoked", revoked.Data.Status)

	resp = ta.do(t, http.MethodPatch, "/api/v1/certificates/999/revoke", nil, teacherID, "teacher")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCertificateHandlerCourseCompletion(t *testing.T) {
	ta := setupApp(t)
	first := ta.createAssignment(t, 11)
	second := ta.createAssignment(t, 11)
	path := "/api/v1/certificates/courses/11"

	submitAndFetchResult(t, ta, first, studentID, `{"answers":[{"questionId":0,"answer":"4"},{"questionId":1,"answer":"Paris"}]}`)

	resp := ta.do(t, http.MethodPost, path, nil, studentID, "student")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode, "second assignment has no passing result yet")
	_ = resp.Body.Close()

	submitAndFetchResult(t, ta, second, studentID, `{"answers":[{"questionId":0,"answer":"4"},{"questionId":1,"answer":" PARIS"}]}`)

	resp = ta.do(t, http.MethodPost, path, nil, studentID, "student")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var issued struct {
		Data dto.CertificateResponse `json:"data"`
	}
	decodeResponse(t, resp, &issued)
	require.True(t, issued.Data.CourseCompletion)
	require.Equal(t, "100", issued.Data.Grade)

	resp = ta.do(t, http.MethodPost, path, nil, studentID, "student")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var again struct {
		Data dto.CertificateResponse `json:"data"`
	}
	decodeResponse(t, resp, &again)
	require.Equal(t, issued.Data.ID, again.Data.ID)
}

func TestActivityHandlerRequiresStaff(t *testing.T) {
	ta := setupApp(t)
	id := ta.createAssignment(t, 2)
	submitAndFetchResult(t, ta, id, studentID, `{"answers":[{"questionId":0,"answer":"4"}]}`)

	resp := ta.do(t, http.MethodGet, "/api/v1/activity", nil, studentID, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = ta.do(t, http.MethodGet, "/api/v1/activity?action=submission.created", nil, teacherID, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data []dto.ActivityResponse `json:"data"`
		Meta dto.PaginationMeta     `json:"meta"`
	}
	decodeResponse(t, resp, &payload)
	require.Len(t, payload.Data, 1)
	require.Equal(t, studentID, payload.Data[0].ActorID)
	require.EqualValues(t, 1, payload.Meta.TotalItems)
}
