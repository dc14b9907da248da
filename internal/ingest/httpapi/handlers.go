package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rmnotify/internal/model"
	"rmnotify/internal/timeseries"
	logx "rmnotify/pkg/logx"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers in the cloud's per-call response shape.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.CloudResponse{Status: "failure", ErrorCode: &status, Description: msg})
}

// decodeBody strictly decodes a bounded JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("trailing data after JSON body")
	}
	return nil
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if a.d.Health != nil {
		snap := a.d.Health()
		body["supervisor"] = snap
		if snap.FirstError != "" {
			body["status"] = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *api) push(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	res, err := a.d.Notify.Handle(r.Context(), raw)
	if err != nil {
		a.log.Debug("push rejected", logx.Err(err))
		writeError(w, http.StatusBadRequest, "malformed push payload")
		return
	}
	if !res.Recognized() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

// maxBatch bounds one /v1/push/batch request.
const maxBatch = 100

// pushBatch handles a JSON array of push payloads and answers with one
// CloudResponse per payload, in order.
func (a *api) pushBatch(w http.ResponseWriter, r *http.Request) {
	var raws []json.RawMessage
	if err := decodeBody(w, r, &raws); err != nil {
		writeError(w, http.StatusBadRequest, "expected a JSON array of push payloads")
		return
	}
	if len(raws) > maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge, "too many payloads in one batch")
		return
	}

	out := make([]model.CloudResponse, 0, len(raws))
	for _, raw := range raws {
		res, err := a.d.Notify.Handle(r.Context(), raw)
		switch {
		case err != nil:
			code := http.StatusBadRequest
			out = append(out, model.CloudResponse{Status: "failure", ErrorCode: &code, Description: "malformed push payload"})
		case !res.Recognized():
			out = append(out, model.CloudResponse{Status: "success", Description: "ignored"})
		case res.Kind == "":
			out = append(out, model.CloudResponse{Status: "success", Description: "params updated"})
		default:
			out = append(out, model.CloudResponse{Status: "success", Description: string(res.Kind)})
		}
	}

	ok, failed := model.SplitByStatus(out)
	a.log.Debug("push batch handled", logx.Int("succeeded", len(ok)), logx.Int("failed", len(failed)))
	status := http.StatusOK
	switch {
	case len(failed) > 0 && len(ok) == 0:
		status = http.StatusBadRequest
	case len(failed) > 0:
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, out)
}

func (a *api) listNotifications(w http.ResponseWriter, r *http.Request) {
	recs, _ := a.d.Notify.Delivered(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"notifications": recs})
}

func (a *api) clearNotifications(w http.ResponseWriter, r *http.Request) {
	a.d.Notify.Cleanup(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) putNodes(w http.ResponseWriter, r *http.Request) {
	var nodes []model.Node
	if err := decodeBody(w, r, &nodes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid node list: "+err.Error())
		return
	}
	if len(nodes) == 0 {
		// Clearing the cache is DELETE; an empty PUT is most likely a bad upload.
		writeError(w, http.StatusBadRequest, model.ErrEmptyNodeList.Error())
		return
	}
	a.d.Store.Nodes.Save(r.Context(), nodes)
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) getNodes(w http.ResponseWriter, r *http.Request) {
	nodes, _ := a.d.Store.Nodes.Fetch(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

func (a *api) deleteNodes(w http.ResponseWriter, r *http.Request) {
	a.d.Store.Nodes.Cleanup(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) putGroups(w http.ResponseWriter, r *http.Request) {
	var list model.GroupList
	if err := decodeBody(w, r, &list); err != nil {
		writeError(w, http.StatusBadRequest, "invalid node group list: "+err.Error())
		return
	}
	a.d.Store.Groups.Save(r.Context(), list.Groups)
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) getGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.GroupList{Groups: a.d.Store.Groups.Fetch(r.Context())})
}

func (a *api) deleteGroups(w http.ResponseWriter, r *http.Request) {
	a.d.Store.Groups.Cleanup(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// logout wipes every local cache and the stored session.
func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	a.d.Store.CleanupAll(r.Context())
	if a.d.Sessions != nil {
		if err := a.d.Sessions.Clear(); err != nil {
			a.log.Error("session clear failed", logx.Err(err))
			writeError(w, http.StatusInternalServerError, "failed to clear session")
			return
		}
	}
	a.log.Info("signed out; local data cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) me(w http.ResponseWriter, r *http.Request) {
	if a.d.Sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	u, err := a.d.Sessions.Current(r.Context())
	if err != nil {
		a.log.Warn("user info unavailable", logx.Err(err))
		writeError(w, http.StatusInternalServerError, "failed to read user info")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type axisResponse struct {
	Interval timeseries.Interval `json:"interval"`
	Duration timeseries.Duration `json:"duration"`
	Label    string              `json:"label"`
	X        timeseries.Axis     `json:"x"`
	Y        *timeseries.Axis    `json:"y,omitempty"`
}

// axis answers ?interval=&start=&end=&tz=[&min=&max=]. Without start/end the
// latest duration for the interval is used.
func (a *api) axis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	iv, err := timeseries.ParseInterval(q.Get("interval"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	loc := time.UTC
	if tz := strings.TrimSpace(q.Get("tz")); tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			writeError(w, http.StatusBadRequest, "invalid tz")
			return
		}
	}

	args := timeseries.Args{Interval: iv}
	args.Duration = args.Latest(a.d.Now())
	if s, e := q.Get("start"), q.Get("end"); s != "" || e != "" {
		start, err1 := strconv.ParseInt(s, 10, 64)
		end, err2 := strconv.ParseInt(e, 10, 64)
		if err1 != nil || err2 != nil || end < start {
			writeError(w, http.StatusBadRequest, "start and end must be unix seconds with start <= end")
			return
		}
		args.Duration = timeseries.Duration{Start: start, End: end}
	}

	x, err := timeseries.XAxis(iv, args.Duration.Start, args.Duration.End, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := axisResponse{
		Interval: iv,
		Duration: args.Duration,
		Label:    args.Label(),
		X:        x,
	}
	if mn, mx := q.Get("min"), q.Get("max"); mn != "" && mx != "" {
		lo, err1 := strconv.ParseFloat(mn, 64)
		hi, err2 := strconv.ParseFloat(mx, 64)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "min and max must be numbers")
			return
		}
		y, err := timeseries.YAxis(lo, hi)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.Y = &y
	}
	writeJSON(w, http.StatusOK, resp)
}
