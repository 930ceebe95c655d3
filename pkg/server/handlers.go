// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/pins"
	"github.com/binkynet/PinWorker/pkg/service/diag"
)

// CommandRequest is the body of a command request.
type CommandRequest struct {
	// Message line in the configured grammar
	Line string `json:"line"`
}

// CommandResponse is the outcome of a command request.
type CommandResponse struct {
	Command string           `json:"command,omitempty"`
	Stage   diag.Stage       `json:"stage"`
	Value   *int             `json:"value,omitempty"`
	Reply   string           `json:"reply,omitempty"`
	Class   model.ErrorClass `json:"class,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// PinInfo describes a single addressable pin.
type PinInfo struct {
	Address int    `json:"address"`
	Digital bool   `json:"digital"`
	Analog  string `json:"analog,omitempty"`
}

// maxPlainBody limits the size of a text/plain command body.
const maxPlainBody = 1024

// handleCommand runs a message line through the same pipeline as the serial line.
// The line is given as a JSON CommandRequest or as a text/plain body.
func (s *Server) handleCommand(c echo.Context) error {
	var req CommandRequest
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMETextPlain) {
		data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPlainBody))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		req.Line = strings.TrimRight(string(data), "\r\n")
	} else if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result := s.service.ProcessLine(c.Request().Context(), diag.SourceHTTP, req.Line)
	resp := CommandResponse{
		Stage: result.Stage,
		Reply: result.Reply,
		Class: model.ClassOf(result.Err),
	}
	if result.Stage != diag.StageDecode {
		resp.Command = result.Command.String()
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
		return c.JSON(statusOf(result.Err), resp)
	}
	value := result.Response.Value
	resp.Value = &value
	return c.JSON(http.StatusOK, resp)
}

// handlePins lists all addresses with their capabilities.
func handlePins(c echo.Context) error {
	result := make([]PinInfo, 0, model.MaxAddress+1)
	for addr := 0; addr <= model.MaxAddress; addr++ {
		info := PinInfo{Address: addr, Digital: true}
		if res, err := pins.Resolve(model.KindAnalog, addr); err == nil {
			info.Analog = res.String()
		}
		result = append(result, info)
	}
	return c.JSON(http.StatusOK, result)
}

// handleEvents returns the most recent events, newest last.
func (s *Server) handleEvents(c echo.Context) error {
	limit := 0
	if x := c.QueryParam("limit"); x != "" {
		v, err := strconv.Atoi(x)
		if err != nil || v < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = v
	}
	return c.JSON(http.StatusOK, s.service.Reporter().Recent(limit))
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Reporter().Stats())
}

// statusOf maps a pipeline error onto a HTTP status code.
func statusOf(err error) int {
	switch model.ClassOf(err) {
	case model.ClassDecode:
		return http.StatusBadRequest
	case model.ClassResolve:
		return http.StatusNotFound
	case model.ClassExec:
		if model.IsUnsupportedOperationError(err) {
			return http.StatusMethodNotAllowed
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
