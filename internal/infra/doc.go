// Package infra provisions the static website that hosts the filedrop web
// client: a website bucket readable only through a CloudFront origin access
// identity, a distribution in front of it, the deployment of a local build
// directory and a cache invalidation after each deployment.
//
// The stack is declared in YAML (see LoadStack) and applied with
// Provisioner.Apply.
package infra
