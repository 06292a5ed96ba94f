package pkcs12

import (
	"crypto/x509"
	"encoding/pem"
	"errors"

	"software.sslmate.com/src/go-pkcs12"
)

// ErrNoCertificate é retornado quando o arquivo PKCS12 não contém certificado
var ErrNoCertificate = errors.New("arquivo PKCS12 não contém certificado")

// ToPEM converte um certificado PKCS12 para blocos PEM
func ToPEM(pfxData []byte, password string) ([]*pem.Block, error) {
	// Decodificar o arquivo PKCS12
	privateKey, certificate, caCerts, err := pkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, err
	}

	// Criar slice para armazenar os blocos PEM
	var blocks []*pem.Block

	// Adicionar o certificado principal
	if certificate != nil {
		blocks = append(blocks, &pem.Block{
			Type:  "CERTIFICATE",
			Bytes: certificate.Raw,
		})
	}

	// Adicionar certificados da cadeia (CA)
	for _, cert := range caCerts {
		blocks = append(blocks, &pem.Block{
			Type:  "CERTIFICATE",
			Bytes: cert.Raw,
		})
	}

	// Adicionar chave privada se disponível
	if privateKey != nil {
		pkData, err := x509.MarshalPKCS8PrivateKey(privateKey)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, &pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: pkData,
		})
	}

	return blocks, nil
}

// LeafCertificate decodifica o arquivo PKCS12 e retorna o certificado principal,
// de onde se extrai a data de validade (NotAfter) no momento do upload
func LeafCertificate(pfxData []byte, password string) (*x509.Certificate, error) {
	_, certificate, _, err := pkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, err
	}
	if certificate == nil {
		return nil, ErrNoCertificate
	}
	return certificate, nil
}
