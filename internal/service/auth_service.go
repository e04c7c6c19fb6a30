// Package service concentra a autenticação dos operadores da fábrica.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fabricasc/producao/internal/auth"
	"github.com/fabricasc/producao/internal/store"
)

var (
	// ErrInvalidCredentials indica falha na autenticação. A mensagem é
	// a mesma para login inexistente e senha errada.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
)

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService valida credenciais e administra as sessões (access JWT
// curto + refresh token rotativo guardado no Redis).
type AuthService struct {
	store      store.RecordStore
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria o serviço.
func NewAuthService(st store.RecordStore, redisClient *redis.Client, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{store: st, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe o gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa o retorno padrão das autenticações.
type LoginResult struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Usuario      *store.Usuario `json:"usuario"`
}

// Login autentica o operador por login e cargo. O cargo faz parte da
// identidade: o mesmo login pode existir em cargos diferentes.
func (s *AuthService) Login(ctx context.Context, login, cargo, senha string) (*LoginResult, error) {
	login = strings.TrimSpace(login)
	cargo = strings.ToUpper(strings.TrimSpace(cargo))

	u, err := s.store.GetUsuarioPorLogin(ctx, login, cargo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn().Str("cargo", cargo).Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, u.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificação de senha falhou")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Str("cargo", cargo).Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}
	if !u.Ativo {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(ctx, u)
}

// Refresh troca um refresh token válido por um par novo (rotação: o
// token usado é invalidado no mesmo passo).
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	key := auth.RefreshRedisKey(hash)

	subject, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	u, err := s.store.GetUsuario(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if !u.Ativo {
		return nil, ErrAccountDisabled
	}

	if err := s.redis.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return s.issueTokens(ctx, u)
}

// Logout revoga o refresh token atual. Token desconhecido não é erro.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(rawToken)
	if err := s.redis.Del(ctx, auth.RefreshRedisKey(hash)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, u *store.Usuario) (*LoginResult, error) {
	access, _, err := s.jwt.GenerateAccessToken(u.ID.String(), u.Login, u.Cargo, u.Nivel)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	key := auth.RefreshRedisKey(refreshHash)
	if err := s.redis.Set(ctx, key, u.ID.String(), s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{AccessToken: access, RefreshToken: rawRefresh, Usuario: u}, nil
}
