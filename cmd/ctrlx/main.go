// Command ctrlx runs one data-layer operation against a ctrlX CORE
// device. Connection settings come from CTRLX_* environment variables.
//
//	ctrlx read framework/metrics/system/cpu-utilisation-percent
//	ctrlx browse
//	ctrlx write plc/app/Application/sym/PLC_PRG/i '{"type":"int16","value":5}'
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-ctrlx-datalayer/datalayer"
	"github.com/jrsteele09/go-ctrlx-datalayer/internal/config"
	"github.com/jrsteele09/go-ctrlx-datalayer/rest"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("ctrlx failed")
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c.GetLogLevel())
	displayAppname(c.GetAppName())

	if len(args) < 1 {
		return errors.New("usage: ctrlx <read|read-metadata|browse|write|create|delete|login-test> [path] [payload]")
	}
	verb := args[0]
	path := ""
	if len(args) > 1 {
		path = args[1]
	}
	var payload json.RawMessage
	if len(args) > 2 {
		payload = json.RawMessage(args[2])
	}

	transportOpts := []rest.Option{rest.WithLogger(log.Logger)}
	if c.GetInsecureTLS() {
		transportOpts = append(transportOpts, rest.WithInsecureTLS())
	}
	transport := rest.New(transportOpts...)

	client := datalayer.New(c.GetHost(), c.GetUsername(), c.GetPassword(), transport, transport,
		datalayer.WithTimeout(c.GetRequestTimeout()),
		datalayer.WithAutoReconnect(c.GetAutoReconnect()),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	login, err := client.Login(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Str("host", client.Host()).
		Str("user", login.Claims.Name).
		Time("renew_at", login.RenewAt).
		Msg("logged in")
	defer func() {
		if err := client.Logout(context.Background()); err != nil {
			log.Warn().Err(err).Msg("token revocation failed")
		}
	}()

	result, err := execute(ctx, client, verb, path, payload)
	if err != nil {
		return err
	}
	if len(result) > 0 {
		fmt.Println(string(result))
	}
	return nil
}

func execute(ctx context.Context, client *datalayer.Client, verb, path string, payload json.RawMessage) (json.RawMessage, error) {
	switch verb {
	case "read":
		return client.Read(ctx, path)
	case "read-metadata":
		return client.ReadMetadata(ctx, path)
	case "browse":
		return client.Browse(ctx, path)
	case "write":
		return client.Write(ctx, path, payload)
	case "create":
		return client.Create(ctx, path, payload)
	case "delete":
		return nil, client.Delete(ctx, path)
	case "login-test":
		return nil, nil
	}
	return nil, errors.Errorf("unknown verb %q", verb)
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(parsed).
		With().Timestamp().Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
