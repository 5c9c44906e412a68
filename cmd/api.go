package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the API
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := apiPath(cmd.StringArg("path"))
	if err != nil {
		return err
	}
	compact := cmd.Bool("json")

	r.logger.Info("GET request", "path", path)

	resp, err := r.rawAPI().Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	return r.writeResponse(resp, !compact)
}

// APIPost makes a direct POST request to the API
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path, err := apiPath(cmd.StringArg("path"))
	if err != nil {
		return err
	}
	data := cmd.String("data")

	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	body := []byte(data)
	if file, ok := strings.CutPrefix(data, "@"); ok {
		if body, err = shared.VerifyAndReadFile(file); err != nil {
			return err
		}
	}
	if err := shared.ValidateJSON(body); err != nil {
		return err
	}

	resp, err := r.rawAPI().Post(ctx, path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	return r.writeResponse(resp, true)
}

func apiPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

// writeResponse prints the body of resp and maps a non-2xx status to the API error taxonomy.
func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		if err := r.writeJSON(resp.JSONData, pretty); err != nil {
			return err
		}
	} else if len(resp.Body) > 0 {
		r.output.Write(resp.Body)
		r.output.Write([]byte("\n"))
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d (request %s)", services.KindForStatus(resp.StatusCode), resp.StatusCode, resp.Headers.Get(services.RequestIDHeader))
	}
	return nil
}
