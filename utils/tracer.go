package utils

import (
	Logger "github.com/collabsvcs/discussion/utils/log"
	"github.com/collabsvcs/discussion/utils/dotenv"
	Flag "github.com/collabsvcs/discussion/utils/flag"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// StartTracer starts the Datadog tracer. Only call this in main, after flags
// are parsed.
func StartTracer() {
	env := "development"
	if dotenv.IsProdEnv() {
		env = "production"
	}

	tracer.Start(
		tracer.WithService(*Flag.ServiceName),
		tracer.WithEnv(env),
	)

	Logger.Log.Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}
