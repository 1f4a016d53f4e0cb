package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/leadflowhq/leadflow"
	"github.com/leadflowhq/leadflow/api/middleware"
	"github.com/leadflowhq/leadflow/config"
)

type Api struct {
	leadflow *leadflow.Leadflow
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/leads", a.CreateLead)
	router.GET("/leads/:id", a.GetLead)
	router.GET("/leads", a.GetAllLeads)
	router.PUT("/leads/:id/status", a.UpdateLeadStatus)

	router.POST("/advertisers", a.CreateAdvertiser)
	router.GET("/advertisers/:id", a.GetAdvertiser)
	router.GET("/advertisers", a.GetAllAdvertisers)

	router.POST("/rules", a.CreateAffiliateRule)
	router.GET("/rules", a.GetAllAffiliateRules)
	router.POST("/advertiser-settings", a.CreateAdvertiserSetting)

	router.POST("/distributions/process", a.ProcessDistributions)
	router.GET("/distributions", a.GetDistributions)
	router.GET("/rejections", a.GetRejections)
	return a.router
}

func NewAPI(l *leadflow.Leadflow) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware("leadflow-api"))
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	r.POST("/webhook", func(c *gin.Context) {
		var payload map[string]interface{}
		err := c.Bind(&payload)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(payload)
		c.JSON(200, "webhook received")
	})

	return &Api{leadflow: l, router: r}
}
