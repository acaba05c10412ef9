package account

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/oggyb/ecstasy/internal/app"
	"github.com/oggyb/ecstasy/internal/db"
	svcErr "github.com/oggyb/ecstasy/internal/errors"
	"github.com/oggyb/ecstasy/internal/middleware"
)

var validate = validator.New()

// Registrar ties the account module into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the account module.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Register attaches auth and profile routes. Auth endpoints are public;
// everything else requires a valid token.
func (r *Registrar) Register(public, private *gin.RouterGroup) {
	public.POST("/auth/register", r.handleRegister)
	public.POST("/auth/login", r.handleLogin)

	private.GET("/me/profile", r.handleMe)
	private.PUT("/me/profile", r.handleUpdateProfile)
	private.GET("/me/preferences", r.handleGetPreferences)
	private.PUT("/me/preferences", r.handleSetPreferences)
}

type registerRequest struct {
	Name       string   `json:"name" binding:"required"`
	Email      string   `json:"email" binding:"required,email"`
	Password   string   `json:"password" binding:"required"`
	Gender     string   `json:"gender"`
	LookingFor string   `json:"looking_for"`
	Birthdate  string   `json:"birthdate"`
	Genres     []string `json:"genres"`
	Artists    []string `json:"artists"`
}

func (r *Registrar) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
		return
	}
	if req.LookingFor != "" {
		if err := validate.Var(req.LookingFor, "oneof=men women everyone"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "looking_for must be one of men, women, everyone"})
			return
		}
	}

	in := RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Gender:     req.Gender,
		LookingFor: req.LookingFor,
		Genres:     req.Genres,
		Artists:    req.Artists,
	}
	if req.Birthdate != "" {
		bd, err := time.Parse("2006-01-02", req.Birthdate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "birthdate must be YYYY-MM-DD"})
			return
		}
		in.Birthdate = &bd
	}

	user, err := r.svc.Register(c.Request.Context(), in)
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusCreated, userView(user))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r *Registrar) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	result, err := r.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}

	c.SetCookie("access_token", result.Token, int(time.Until(result.ExpiresAt).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       userView(result.User),
	})
}

func (r *Registrar) handleMe(c *gin.Context) {
	user, err := r.svc.GetUser(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, userView(user))
}

type profileRequest struct {
	Bio       string `json:"bio"`
	Location  string `json:"location"`
	AvatarURL string `json:"avatar_url"`
}

func (r *Registrar) handleUpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile payload"})
		return
	}
	if err := r.svc.UpdateProfile(c.Request.Context(), middleware.CallerID(c), req.Bio, req.Location, req.AvatarURL); err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (r *Registrar) handleGetPreferences(c *gin.Context) {
	genres, artists, err := r.svc.GetPreferences(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres, "artists": artists})
}

type preferencesRequest struct {
	Genres  []string `json:"genres"`
	Artists []string `json:"artists"`
}

func (r *Registrar) handleSetPreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preferences payload"})
		return
	}
	if err := r.svc.SetPreferences(c.Request.Context(), middleware.CallerID(c), req.Genres, req.Artists); err != nil {
		c.JSON(svcErr.HTTPStatus(err), gin.H{"error": svcErr.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// userView strips the password hash before anything leaves the service.
func userView(u *db.User) gin.H {
	view := gin.H{
		"id":          u.ID,
		"name":        u.Name,
		"email":       u.Email,
		"gender":      u.Gender,
		"looking_for": u.LookingFor,
	}
	if u.Birthdate != nil {
		view["birthdate"] = u.Birthdate.Format("2006-01-02")
	}
	if u.Profile != nil {
		view["profile"] = gin.H{
			"bio":        u.Profile.Bio,
			"location":   u.Profile.Location,
			"avatar_url": u.Profile.AvatarURL,
		}
	}
	return view
}
