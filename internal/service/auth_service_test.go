package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fabricasc/producao/internal/auth"
	"github.com/fabricasc/producao/internal/store/memory"
	"github.com/fabricasc/producao/internal/usuario"
)

// redisFake guarda o estado de refresh em memória, com a mesma
// interface do client real.
type redisFake struct {
	mu   sync.Mutex
	dado map[string]string
}

func novoRedisFake() *redisFake {
	return &redisFake{dado: make(map[string]string)}
}

func (r *redisFake) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dado[key] = value.(string)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (r *redisFake) Get(ctx context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd := redis.NewStringCmd(ctx)
	if v, ok := r.dado[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (r *redisFake) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := r.dado[k]; ok {
			delete(r.dado, k)
			n++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(n)
	return cmd
}

func novoAuthService(t *testing.T) (*AuthService, *usuario.Service) {
	t.Helper()
	st := memory.New()
	jwtMgr := auth.NewJWTManager("um-segredo-de-teste-com-32-bytes!", 15*time.Minute)
	s := &AuthService{
		store:      st,
		redis:      novoRedisFake(),
		jwt:        jwtMgr,
		refreshTTL: time.Hour,
	}
	return s, usuario.NewService(st)
}

func TestLoginEmiteTokens(t *testing.T) {
	s, usuarios := novoAuthService(t)
	ctx := context.Background()

	if _, err := usuarios.Criar(ctx, usuario.Entrada{Login: "ana", Senha: "segredo123", Cargo: "PCP"}); err != nil {
		t.Fatalf("Criar: %v", err)
	}

	res, err := s.Login(ctx, "ana", "pcp", "segredo123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("tokens vazios")
	}

	claims, err := s.JWT().ParseAndValidate(res.AccessToken)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Login != "ana" || claims.Cargo != "PCP" || claims.Nivel != "ADM" {
		t.Fatalf("claims erradas: %+v", claims)
	}
}

func TestLoginNaoVazaExistenciaDeUsuario(t *testing.T) {
	s, usuarios := novoAuthService(t)
	ctx := context.Background()

	if _, err := usuarios.Criar(ctx, usuario.Entrada{Login: "ana", Senha: "segredo123", Cargo: "PCP"}); err != nil {
		t.Fatalf("Criar: %v", err)
	}

	_, errSenha := s.Login(ctx, "ana", "PCP", "senha-errada")
	_, errLogin := s.Login(ctx, "ninguem", "PCP", "qualquer")

	if !errors.Is(errSenha, ErrInvalidCredentials) || !errors.Is(errLogin, ErrInvalidCredentials) {
		t.Fatalf("erros diferentes: senha=%v login=%v", errSenha, errLogin)
	}
}

func TestLoginContaDesativada(t *testing.T) {
	s, usuarios := novoAuthService(t)
	ctx := context.Background()

	u, err := usuarios.Criar(ctx, usuario.Entrada{Login: "beto", Senha: "segredo123", Cargo: "MONTADOR"})
	if err != nil {
		t.Fatalf("Criar: %v", err)
	}
	if _, err := usuarios.AlternarAtivo(ctx, u.ID); err != nil {
		t.Fatalf("AlternarAtivo: %v", err)
	}

	if _, err := s.Login(ctx, "beto", "MONTADOR", "segredo123"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("conta desativada: err = %v", err)
	}
}

func TestRefreshRotacionaToken(t *testing.T) {
	s, usuarios := novoAuthService(t)
	ctx := context.Background()

	if _, err := usuarios.Criar(ctx, usuario.Entrada{Login: "ana", Senha: "segredo123", Cargo: "PCP"}); err != nil {
		t.Fatalf("Criar: %v", err)
	}
	res, err := s.Login(ctx, "ana", "PCP", "segredo123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	renovado, err := s.Refresh(ctx, res.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if renovado.RefreshToken == res.RefreshToken {
		t.Fatal("refresh deveria rotacionar o token")
	}

	// token antigo morreu na rotação
	if _, err := s.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("reuso do token antigo: err = %v", err)
	}
}

func TestLogoutRevogaRefresh(t *testing.T) {
	s, usuarios := novoAuthService(t)
	ctx := context.Background()

	if _, err := usuarios.Criar(ctx, usuario.Entrada{Login: "ana", Senha: "segredo123", Cargo: "PCP"}); err != nil {
		t.Fatalf("Criar: %v", err)
	}
	res, err := s.Login(ctx, "ana", "PCP", "segredo123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := s.Logout(ctx, res.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := s.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("refresh após logout: err = %v", err)
	}

	// logout de token desconhecido é silencioso
	if err := s.Logout(ctx, "nunca-existiu"); err != nil {
		t.Fatalf("logout desconhecido: %v", err)
	}
}
