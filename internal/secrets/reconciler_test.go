package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func fullSpec() Spec {
	return Spec{
		Name:      "product-assistant-secrets",
		Namespace: "default",
		Values: map[string]string{
			"GROQ_API_KEY":               "gsk_test",
			"ASTRA_DB_API_ENDPOINT":      "https://db.example.apps.astra.datastax.com",
			"ASTRA_DB_APPLICATION_TOKEN": "AstraCS:test",
			"ASTRA_DB_KEYSPACE":          "product_assistant",
		},
	}
}

func actionVerbs(t *testing.T, clientset *fake.Clientset) []string {
	t.Helper()
	var verbs []string
	for _, a := range clientset.Actions() {
		verbs = append(verbs, a.GetVerb())
	}
	return verbs
}

func TestReconcile_ReplacesExistingSecret(t *testing.T) {
	existing := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "product-assistant-secrets", Namespace: "default"},
		Data:       map[string][]byte{"STALE_KEY": []byte("old")},
	}
	clientset := fake.NewSimpleClientset(existing)

	err := New(clientset).Reconcile(context.Background(), fullSpec())
	require.NoError(t, err)

	assert.Equal(t, []string{"delete", "create", "get"}, actionVerbs(t, clientset))

	got, err := clientset.CoreV1().Secrets("default").Get(context.Background(), "product-assistant-secrets", metav1.GetOptions{})
	require.NoError(t, err)
	assert.NotContains(t, got.StringData, "STALE_KEY")
	for _, key := range RequiredKeys {
		assert.Contains(t, got.StringData, key)
	}
	assert.Equal(t, corev1.SecretTypeOpaque, got.Type)
}

func TestReconcile_CreatesWhenAbsent(t *testing.T) {
	clientset := fake.NewSimpleClientset()

	err := New(clientset).Reconcile(context.Background(), fullSpec())
	require.NoError(t, err)

	// A missing secret on delete is not an error; the create still runs.
	assert.Equal(t, []string{"delete", "create", "get"}, actionVerbs(t, clientset))
}

func TestReconcile_MissingValueFailsClosed(t *testing.T) {
	clientset := fake.NewSimpleClientset()

	spec := fullSpec()
	spec.Values["ASTRA_DB_APPLICATION_TOKEN"] = ""
	delete(spec.Values, "GROQ_API_KEY")

	err := New(clientset).Reconcile(context.Background(), spec)
	require.Error(t, err)

	var missing *MissingValueError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"ASTRA_DB_APPLICATION_TOKEN", "GROQ_API_KEY"}, missing.Keys)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")

	assert.Empty(t, clientset.Actions(), "validation failure must not touch the cluster")
}

func TestReconcile_DeleteFailurePropagates(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	boom := errors.New("webhook denied the request")
	clientset.PrependReactor("delete", "secrets", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, boom
	})

	err := New(clientset).Reconcile(context.Background(), fullSpec())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestReconcile_VerifyDetectsKeyDrift(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	clientset.PrependReactor("get", "secrets", func(k8stesting.Action) (bool, runtime.Object, error) {
		drifted := &corev1.Secret{
			ObjectMeta: metav1.ObjectMeta{Name: "product-assistant-secrets", Namespace: "default"},
			Data: map[string][]byte{
				"GROQ_API_KEY":          []byte("gsk_test"),
				"ASTRA_DB_API_ENDPOINT": []byte("https://db.example.apps.astra.datastax.com"),
				"UNEXPECTED_KEY":        []byte("surprise"),
			},
		}
		return true, drifted, nil
	})

	err := New(clientset).Reconcile(context.Background(), fullSpec())
	require.Error(t, err)

	var verify *VerifyError
	require.ErrorAs(t, err, &verify)
	assert.Equal(t, []string{"ASTRA_DB_APPLICATION_TOKEN", "ASTRA_DB_KEYSPACE"}, verify.Missing)
	assert.Equal(t, []string{"UNEXPECTED_KEY"}, verify.Extra)
}

func TestReconcile_DefaultsNameAndNamespace(t *testing.T) {
	clientset := fake.NewSimpleClientset()

	spec := fullSpec()
	spec.Name = ""
	spec.Namespace = ""

	err := New(clientset).Reconcile(context.Background(), spec)
	require.NoError(t, err)

	_, err = clientset.CoreV1().Secrets(DefaultNamespace).Get(context.Background(), DefaultName, metav1.GetOptions{})
	require.NoError(t, err)
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		"GROQ_API_KEY":               "gsk_env",
		"ASTRA_DB_API_ENDPOINT":      "https://env.example",
		"ASTRA_DB_APPLICATION_TOKEN": "AstraCS:env",
		"ASTRA_DB_KEYSPACE":          "product_assistant",
	}
	spec := FromEnv("s", "ns", func(key string) string { return env[key] })

	assert.Equal(t, "s", spec.Name)
	assert.Equal(t, "ns", spec.Namespace)
	require.Len(t, spec.Values, len(RequiredKeys))
	for _, key := range RequiredKeys {
		assert.Equal(t, env[key], spec.Values[key])
	}
}

func TestMissingKeys(t *testing.T) {
	assert.Equal(t, sortedRequiredKeys(), missingKeys(nil))
	assert.Empty(t, missingKeys(fullSpec().Values))

	values := fullSpec().Values
	values["EXTRA"] = ""
	assert.Equal(t, []string{"EXTRA"}, missingKeys(values))
}

// sortedRequiredKeys is the required key set in the sorted order
// missingKeys reports them in.
func sortedRequiredKeys() []string {
	return []string{
		"ASTRA_DB_API_ENDPOINT",
		"ASTRA_DB_APPLICATION_TOKEN",
		"ASTRA_DB_KEYSPACE",
		"GROQ_API_KEY",
	}
}
