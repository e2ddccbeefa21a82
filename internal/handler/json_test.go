package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) Response {
	t.Helper()
	response := Response{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	return response
}

func TestResponseEnvelope(t *testing.T) {
	h := &Handler{}
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	t.Run("成功响应带上 isSuccess 和 data", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		h.successResponse(recorder, request, "操作成功", map[string]any{"total": 1})

		assert.Equal(t, http.StatusOK, recorder.Code)
		response := decodeResponse(t, recorder)
		assert.True(t, response.IsSuccess)
		assert.Equal(t, "操作成功", response.Message)
		assert.NotNil(t, response.Data)
	})

	t.Run("信封字段名固定为 isSuccess、message、data", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		h.successResponse(recorder, request, "操作成功", nil)

		raw := map[string]any{}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&raw))
		assert.Contains(t, raw, "isSuccess")
		assert.Contains(t, raw, "message")
		assert.Contains(t, raw, "data")
	})

	t.Run("业务失败响应仍然返回 200", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		h.errorResponse(recorder, request, "学员不存在")

		assert.Equal(t, http.StatusOK, recorder.Code)
		response := decodeResponse(t, recorder)
		assert.False(t, response.IsSuccess)
		assert.Equal(t, "学员不存在", response.Message)
		assert.Nil(t, response.Data)
	})

	t.Run("非校验错误的请求错误直接透出错误信息", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		h.badRequest(recorder, request, errors.New("邮箱已存在"))

		response := decodeResponse(t, recorder)
		assert.False(t, response.IsSuccess)
		assert.Equal(t, "邮箱已存在", response.Message)
	})

	t.Run("服务器内部错误返回 500", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		h.internalServerError(recorder, request, errors.New("数据库连接失败"))

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		response := decodeResponse(t, recorder)
		assert.False(t, response.IsSuccess)
	})
}
