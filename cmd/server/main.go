package main

import (
	"context"
	"net/http"
	"os"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"github.com/collabsvcs/discussion/clients"
	"github.com/collabsvcs/discussion/discourse"
	"github.com/collabsvcs/discussion/moderation"
	"github.com/collabsvcs/discussion/notification"
	"github.com/collabsvcs/discussion/server"
	"github.com/collabsvcs/discussion/server/middlewares"
	"github.com/collabsvcs/discussion/store"
	"github.com/collabsvcs/discussion/utils"
	"github.com/collabsvcs/discussion/utils/dotenv"
	Flag "github.com/collabsvcs/discussion/utils/flag"
	Logger "github.com/collabsvcs/discussion/utils/log"
)

func cleanup() {
	utils.CloseProfiler()
	utils.CloseTracer()
	Logger.Log.Info("api server shutdown")
}

func newModerationPublisher(statsdClient *statsd.Client) moderation.Publisher {
	if *Flag.IsDevelopment {
		return &moderation.StderrPublisher{}
	}
	publisher, err := moderation.NewSnsPublisher(statsdClient)
	if err != nil {
		Logger.Log.Fatalf("fail to create moderation publisher: %v", err)
	}
	return publisher
}

func newEmailSender() notification.Sender {
	if *Flag.IsDevelopment {
		return &notification.StderrSender{}
	}
	sender, err := notification.NewSnsSender()
	if err != nil {
		Logger.Log.Fatalf("fail to create email sender: %v", err)
	}
	return sender
}

func main() {
	Flag.ParseFlags()
	Logger.InitLogger()
	defer cleanup()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	utils.StartTracer()
	utils.StartProfiler()

	db, err := utils.GetDefaultDBConnection()
	if err != nil {
		Logger.Log.Fatalf("fail to connect to database: %v", err)
	}
	utils.DatabaseSetupAndMigration(db)

	statsdClient, err := statsd.New("127.0.0.1:8125")
	if err != nil {
		Logger.Log.Errorf("fail to create statsd client, metrics disabled: %v", err)
	}

	associations := store.NewGormAssociationStore(db)
	forum := discourse.NewClient(
		os.Getenv("DISCOURSE_HOST"),
		os.Getenv("DISCOURSE_API_KEY"),
		associations,
	)
	auth := clients.NewAuthClient(os.Getenv("AUTH_SERVICE_HOST"))
	asset := clients.NewAssetClient(os.Getenv("ASSET_SERVICE_HOST"))

	bus := notification.NewBus()
	notifier := notification.NewNotifier(bus, newEmailSender())
	go notifier.Run(context.Background())

	handler := &server.Handler{
		Forum:        forum,
		Associations: associations,
		Auth:         auth,
		Asset:        asset,
		Moderation:   newModerationPublisher(statsdClient),
		Bus:          bus,
	}

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(gintrace.Middleware(*Flag.ServiceName))
	router.Use(middlewares.Identity())

	handler.RegisterRoutes(router)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	Logger.Log.Info("api server starts up")
	router.Run(":8080")
}
