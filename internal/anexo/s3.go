package anexo

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config parametriza o bucket compatível com S3 usado para anexos
// em instalações com mais de um posto de trabalho.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3 implementa Armazenador sobre um bucket S3/MinIO.
type S3 struct {
	client  *minio.Client
	bucket  string
	timeout time.Duration
}

// NewS3 conecta no endpoint e garante o bucket.
func NewS3(cfg S3Config) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	s := &S3{client: client, bucket: cfg.Bucket, timeout: 15 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	existe, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !existe {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Salvar envia o arquivo inteiro para o bucket.
func (s *S3) Salvar(numeroOP, nomeOriginal string, conteudo io.Reader) (string, error) {
	nome, err := NomeArquivo(numeroOP, nomeOriginal)
	if err != nil {
		return "", err
	}

	corpo, err := io.ReadAll(conteudo)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err = s.client.PutObject(ctx, s.bucket, nome, bytes.NewReader(corpo), int64(len(corpo)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", err
	}
	return nome, nil
}

// Abrir baixa o objeto do bucket.
func (s *S3) Abrir(nome string) (io.ReadCloser, error) {
	return s.client.GetObject(context.Background(), s.bucket, nome, minio.GetObjectOptions{})
}

// Remover apaga o objeto.
func (s *S3) Remover(nome string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.RemoveObject(ctx, s.bucket, nome, minio.RemoveObjectOptions{})
}
