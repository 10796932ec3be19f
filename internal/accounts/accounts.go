package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/playmatatu/poolsim/internal/models"
)

var (
	// ErrInvalidCredentials covers unknown clients, inactive clients and wrong
	// secrets alike so callers cannot probe which one failed.
	ErrInvalidCredentials = errors.New("invalid client credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const clientColumns = `id, client_id, secret_hash, name, is_active, created_at, last_used_at`

// HashSecret bcrypt-hashes a client secret.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hashed), nil
}

func CheckSecret(hashed, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret)) == nil
}

// CreateClient inserts a client or rotates the secret of an existing one.
func CreateClient(db *sqlx.DB, clientID, name, secret string) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	hashed, err := HashSecret(secret)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO api_clients (client_id, secret_hash, name, is_active, created_at)
		VALUES ($1, $2, $3, TRUE, NOW())
		ON CONFLICT (client_id) DO UPDATE SET
			secret_hash = EXCLUDED.secret_hash,
			name = EXCLUDED.name,
			is_active = TRUE
	`, clientID, hashed, name)
	return err
}

// Authenticate looks the client up and verifies its secret.
func Authenticate(db *sqlx.DB, clientID, secret string) (*models.APIClient, error) {
	var client models.APIClient
	err := db.Get(&client, `SELECT `+clientColumns+` FROM api_clients WHERE client_id=$1`, clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !client.IsActive || !CheckSecret(client.SecretHash, secret) {
		return nil, ErrInvalidCredentials
	}

	if _, err := db.Exec(`UPDATE api_clients SET last_used_at=NOW() WHERE id=$1`, client.ID); err != nil {
		log.Warnf("[AUTH] failed to touch client %s: %v", clientID, err)
	}
	return &client, nil
}

// Directory authenticates clients against the api_clients table.
type Directory struct {
	db *sqlx.DB
}

func NewDirectory(db *sqlx.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) Authenticate(clientID, secret string) (*models.APIClient, error) {
	return Authenticate(d.db, clientID, secret)
}

// IssueToken signs an HS256 token carrying the client id.
func IssueToken(secret, clientID string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"client_id": clientID,
		"iat":       time.Now().Unix(),
		"exp":       exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseToken verifies the signature and expiry and returns the client id.
func ParseToken(secret, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	clientID, ok := claims["client_id"].(string)
	if !ok || clientID == "" {
		return "", ErrInvalidToken
	}
	return clientID, nil
}
