package kubeclient

import (
	"fmt"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ConfigError reports that no usable cluster configuration could be found.
type ConfigError struct {
	InClusterErr  error
	KubeconfigErr error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("no usable cluster configuration: in-cluster: %v; kubeconfig: %v", e.InClusterErr, e.KubeconfigErr)
}

// LoadConfig resolves cluster connection details. Inside a pod the mounted
// service account wins; outside, the standard kubeconfig chain applies
// (KUBECONFIG, then ~/.kube/config).
func LoadConfig() (*rest.Config, error) {
	cfg, inClusterErr := rest.InClusterConfig()
	if inClusterErr == nil {
		return cfg, nil
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, kubeconfigErr := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if kubeconfigErr == nil {
		return cfg, nil
	}

	return nil, &ConfigError{InClusterErr: inClusterErr, KubeconfigErr: kubeconfigErr}
}
