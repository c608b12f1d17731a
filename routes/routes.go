package routes

import (
	"github.com/gin-gonic/gin"

	"visa-consult-api/controllers"
)

// Controllers bundles the constructed handlers injected into the router.
type Controllers struct {
	Visa       *controllers.VisaController
	Contact    *controllers.ContactController
	Feedback   *controllers.FeedbackController
	Newsletter *controllers.NewsletterController
	Health     *controllers.HealthController
}

// SetupRoutes maps paths and methods to the injected controllers.
func SetupRoutes(router *gin.Engine, ctl Controllers) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Visa applications
		visa := v1.Group("/visa")
		{
			visa.POST("/application", ctl.Visa.SubmitApplication)
			visa.GET("/status/:applicationId", ctl.Visa.GetApplicationStatus)
			visa.GET("/applications", ctl.Visa.ListApplications)
			visa.PATCH("/applications/:id/status", ctl.Visa.UpdateApplicationStatus)
			visa.GET("/stats", ctl.Visa.GetStats)
		}

		// Contact messages
		contact := v1.Group("/contact")
		{
			contact.POST("", ctl.Contact.SubmitMessage)
			contact.GET("/messages", ctl.Contact.ListMessages)
			contact.PATCH("/:id/status", ctl.Contact.UpdateMessageStatus)
			contact.GET("/stats", ctl.Contact.GetStats)
		}

		// Feedback
		feedback := v1.Group("/feedback")
		{
			feedback.POST("", ctl.Feedback.SubmitFeedback)
			feedback.GET("/entries", ctl.Feedback.ListFeedback)
			feedback.PATCH("/:id/status", ctl.Feedback.UpdateFeedbackStatus)
			feedback.GET("/stats", ctl.Feedback.GetStats)
		}

		// Newsletter
		newsletter := v1.Group("/newsletter")
		{
			newsletter.POST("/subscribe", ctl.Newsletter.Subscribe)
			newsletter.POST("/unsubscribe", ctl.Newsletter.Unsubscribe)
			newsletter.GET("/stats", ctl.Newsletter.GetStats)
		}

		// Health checks
		health := v1.Group("/health")
		{
			health.GET("", ctl.Health.Health)
			health.GET("/detailed", ctl.Health.HealthDetailed)
			health.GET("/ping", ctl.Health.Ping)
		}
	}

	// Unversioned health probes for load balancers
	router.GET("/health", ctl.Health.Health)
	router.GET("/health/detailed", ctl.Health.HealthDetailed)
	router.GET("/health/ping", ctl.Health.Ping)
}
