package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/logger"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/report"
	"github.com/SM01-studio/Colorinsight-AI-T-01/internal/wizard"
)

// Handler 向导的 JSON API。每个会话动作都返回动作后的会话快照，
// 前端据此切换视图；业务失败（解析、调研、生成）不返回 5xx，
// 错误信息已写入快照由页面展示。
type Handler struct {
	wiz            *wizard.Wizard
	store          *wizard.Store
	maxUploadBytes int64
}

// NewHandler 创建 API 处理器
func NewHandler(wiz *wizard.Wizard, store *wizard.Store, maxUploadBytes int64) *Handler {
	return &Handler{wiz: wiz, store: store, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("写入响应失败: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// session 从路径参数定位会话
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id := mux.Vars(r)["id"]
	s, err := h.store.Get(id)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "会话不存在或已过期")
		return nil, false
	}
	return s, true
}

// CreateSession POST /api/session
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s := h.store.Create()
	logger.Log.Infof("新建会话 [%s]", s.ID)
	h.writeJSON(w, http.StatusCreated, s.Snapshot())
}

// GetSession GET /api/session/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, s.Snapshot())
}

// Upload POST /api/session/{id}/upload，multipart 字段名为 file
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+4096)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			h.rejectOversize(w, r, s)
			return
		}
		h.writeError(w, http.StatusBadRequest, "缺少上传文件")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			h.rejectOversize(w, r, s)
			return
		}
		h.writeError(w, http.StatusBadRequest, "读取上传文件失败")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}

	err = h.wiz.UploadDocument(r.Context(), s, wizard.Upload{
		Name: header.Filename,
		MIME: mimeType,
		Size: int64(len(data)),
		Data: data,
	})
	h.respondAfterAction(w, s, err)
}

// rejectOversize 把超限上传交给向导的大小校验，
// 让错误信息和状态与文件级校验失败保持一致。
func (h *Handler) rejectOversize(w http.ResponseWriter, r *http.Request, s *wizard.Session) {
	_ = h.wiz.UploadDocument(r.Context(), s, wizard.Upload{
		MIME: wizard.PDFMime,
		Size: h.maxUploadBytes + 1,
	})
	h.writeJSON(w, http.StatusOK, s.Snapshot())
}

// isBodyTooLarge 识别 MaxBytesReader 触发的读取中断
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// Confirm POST /api/session/{id}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	err := h.wiz.ConfirmRequirements(r.Context(), s)
	h.respondAfterAction(w, s, err)
}

// Proceed POST /api/session/{id}/proceed，搜索变体下从调研结果进入方案生成
func (h *Handler) Proceed(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	err := h.wiz.ProceedToSchemes(r.Context(), s)
	h.respondAfterAction(w, s, err)
}

// Select POST /api/session/{id}/select，body 为 {"selected": n}，-1 表示采用推荐方案
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Selected int `json:"selected"`
	}
	body.Selected = -1
	if r.Body != nil {
		// body 为空时沿用默认值
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	err := h.wiz.ShowResult(s, body.Selected)
	h.respondAfterAction(w, s, err)
}

// Export GET /api/session/{id}/export，成功时直接下载 PDF
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	data, filename, err := h.wiz.Export(s)
	if err != nil {
		if errors.Is(err, wizard.ErrInvalidState) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.writeJSON(w, http.StatusOK, s.Snapshot())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(filename)))
	w.Write(data)
}

// Report GET /api/session/{id}/report，渲染屏显版 HTML 报告
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snap := s.Snapshot()
	if snap.State != wizard.StateResult {
		h.writeError(w, http.StatusConflict, "会话尚未进入结果视图")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderHTML(w, snap); err != nil {
		logger.Log.Errorf("会话 [%s] 报告渲染失败: %v", snap.ID, err)
	}
}

// Reset POST /api/session/{id}/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.wiz.Reset(s)
	h.writeJSON(w, http.StatusOK, s.Snapshot())
}

// respondAfterAction 统一的动作响应：状态冲突返回 409，
// 其余情况返回动作后的快照（含业务失败写入的错误信息）。
func (h *Handler) respondAfterAction(w http.ResponseWriter, s *wizard.Session, err error) {
	if err != nil && errors.Is(err, wizard.ErrInvalidState) {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, s.Snapshot())
}
