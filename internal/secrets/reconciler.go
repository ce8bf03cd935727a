// Package secrets reconciles the application's Kubernetes Secret by
// replacing it wholesale: delete the existing object, create a fresh one
// from the desired values, then read it back to verify the key set.
package secrets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/prodassist/infractl/internal/logging"
)

// RequiredKeys are the credential keys the application reads at startup.
// Every one of them must carry a non-empty value before any mutation is
// issued.
var RequiredKeys = []string{
	"GROQ_API_KEY",
	"ASTRA_DB_API_ENDPOINT",
	"ASTRA_DB_APPLICATION_TOKEN",
	"ASTRA_DB_KEYSPACE",
}

// DefaultName and DefaultNamespace locate the application secret when the
// operator does not override them.
const (
	DefaultName      = "product-assistant-secrets"
	DefaultNamespace = "default"
)

// Spec is the desired secret: its identity plus the full key/value set it
// must hold after reconciliation.
type Spec struct {
	Name      string
	Namespace string
	Values    map[string]string
}

// FromEnv builds a Spec whose values come from the process environment,
// one variable per required key. Empty or unset variables surface later
// as a MissingValueError from Reconcile.
func FromEnv(name, namespace string, lookup func(string) string) Spec {
	values := make(map[string]string, len(RequiredKeys))
	for _, key := range RequiredKeys {
		values[key] = lookup(key)
	}
	return Spec{Name: name, Namespace: namespace, Values: values}
}

// MissingValueError reports required keys with no value. It is returned
// before any API call is made.
type MissingValueError struct {
	Keys []string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("missing value for secret key(s): %s", strings.Join(e.Keys, ", "))
}

// VerifyError reports a post-create read-back whose key set does not
// match the spec.
type VerifyError struct {
	Name      string
	Namespace string
	Missing   []string
	Extra     []string
}

func (e *VerifyError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected %s", strings.Join(e.Extra, ", ")))
	}
	return fmt.Sprintf("secret %s/%s failed verification: %s", e.Namespace, e.Name, strings.Join(parts, "; "))
}

// Reconciler replaces a Secret in a cluster with the desired spec.
type Reconciler struct {
	client kubernetes.Interface
}

// New returns a Reconciler over an existing clientset.
func New(client kubernetes.Interface) *Reconciler {
	return &Reconciler{client: client}
}

// NewForKubeconfig builds a Reconciler from a kubeconfig file. An empty
// path falls back to the clientcmd default loading rules.
func NewForKubeconfig(path string) (*Reconciler, error) {
	if path == "" {
		path = clientcmd.NewDefaultClientConfigLoadingRules().GetDefaultFilename()
	}
	cfg, err := clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}
	return &Reconciler{client: clientset}, nil
}

// Reconcile replaces the target secret: validate, delete, create, verify.
// Validation fails closed: if any value is empty the cluster is not
// touched at all. The delete-then-create sequence leaves a brief window
// with no secret; callers that cannot tolerate it should pause consumers
// first.
func (r *Reconciler) Reconcile(ctx context.Context, spec Spec) error {
	if spec.Name == "" {
		spec.Name = DefaultName
	}
	if spec.Namespace == "" {
		spec.Namespace = DefaultNamespace
	}

	if missing := missingKeys(spec.Values); len(missing) > 0 {
		return &MissingValueError{Keys: missing}
	}

	client := r.client.CoreV1().Secrets(spec.Namespace)

	err := client.Delete(ctx, spec.Name, metav1.DeleteOptions{})
	switch {
	case err == nil:
		logging.Info("deleted existing secret", "name", spec.Name, "namespace", spec.Namespace)
	case apierrors.IsNotFound(err):
		logging.Debug("no existing secret to delete", "name", spec.Name, "namespace", spec.Namespace)
	default:
		return fmt.Errorf("failed to delete secret %s/%s: %w", spec.Namespace, spec.Name, err)
	}

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: spec.Namespace,
		},
		Type:       corev1.SecretTypeOpaque,
		StringData: spec.Values,
	}
	if _, err := client.Create(ctx, secret, metav1.CreateOptions{}); err != nil {
		return fmt.Errorf("failed to create secret %s/%s: %w", spec.Namespace, spec.Name, err)
	}
	logging.Info("created secret", "name", spec.Name, "namespace", spec.Namespace, "keys", len(spec.Values))

	return r.verify(ctx, spec)
}

// verify reads the secret back and checks its key set against the spec.
func (r *Reconciler) verify(ctx context.Context, spec Spec) error {
	got, err := r.client.CoreV1().Secrets(spec.Namespace).Get(ctx, spec.Name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to read back secret %s/%s: %w", spec.Namespace, spec.Name, err)
	}

	// The API server folds StringData into Data on write; check both so
	// the comparison holds against any conformant store.
	have := make(map[string]bool, len(got.Data)+len(got.StringData))
	for key := range got.Data {
		have[key] = true
	}
	for key := range got.StringData {
		have[key] = true
	}

	var missing, extra []string
	for key := range spec.Values {
		if !have[key] {
			missing = append(missing, key)
		}
	}
	for key := range have {
		if _, ok := spec.Values[key]; !ok {
			extra = append(extra, key)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(missing)
		sort.Strings(extra)
		return &VerifyError{Name: spec.Name, Namespace: spec.Namespace, Missing: missing, Extra: extra}
	}
	return nil
}

// missingKeys returns every required key that is absent or empty in
// values, plus any extra key present with an empty value, sorted.
func missingKeys(values map[string]string) []string {
	seen := make(map[string]bool, len(values))
	var missing []string
	for _, key := range RequiredKeys {
		seen[key] = true
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	for key, value := range values {
		if !seen[key] && value == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
